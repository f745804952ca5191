package reactor

import "testing"

func TestUpgradeToWebSocketSwitchesDecoderAndPhase(t *testing.T) {
	atta := newHTTPAttachment(1<<20, 8192)
	if atta.phase != PhaseHTTP || atta.httpDec == nil || atta.wsDec != nil {
		t.Fatalf("unexpected initial attachment state: %+v", atta)
	}

	atta.upgradeToWebSocket()

	if atta.phase != PhaseWebSocket {
		t.Fatal("expected phase to become PhaseWebSocket")
	}
	if atta.httpDec != nil {
		t.Fatal("expected httpDec to be cleared after upgrade")
	}
	if atta.wsDec == nil {
		t.Fatal("expected wsDec to be set after upgrade")
	}
	if !atta.keepAlive {
		t.Fatal("expected keepAlive true after upgrade")
	}
}

func TestPhaseNeverRevertsAfterUpgrade(t *testing.T) {
	atta := newHTTPAttachment(1<<20, 8192)
	atta.upgradeToWebSocket()
	before := atta.phase
	atta.upgradeToWebSocket() // idempotent call must not revert anything
	if atta.phase != before || atta.phase != PhaseWebSocket {
		t.Fatal("phase must remain PhaseWebSocket")
	}
}
