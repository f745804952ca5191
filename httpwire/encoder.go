package httpwire

import "strconv"

// statusLine maps a status code to its reason phrase for the small set of
// responses the reactor core generates itself (as opposed to a handler's
// own response bytes, which pass through unmodified).
var statusLine = map[int]string{
	400: "Bad Request",
	404: "Not Found",
	413: "Payload Too Large",
	414: "URI Too Long",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
}

// ErrorResponse builds a minimal Connection: close response for a status
// the core itself decides to send (line-too-long, body-too-large), per
// spec §4.C/§4.G.
func ErrorResponse(status int) []byte {
	reason, ok := statusLine[status]
	if !ok {
		reason = "Error"
	}
	body := reason + "\n"
	resp := "HTTP/1.1 " + strconv.Itoa(status) + " " + reason + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"Connection: close\r\n" +
		"\r\n" + body
	return []byte(resp)
}
