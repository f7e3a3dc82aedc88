package server

import "fmt"

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":     green,
	"POST":    blue,
	"PUT":     cyan,
	"DELETE":  yellow,
	"PATCH":   magenta,
	"OPTIONS": gray,
}

// colorMethod pads an HTTP method for the route listing and wraps it in
// its terminal colour.
func colorMethod(method string) string {
	color, ok := methodColors[method]
	if !ok {
		color = gray
	}
	return fmt.Sprintf("%s%-7s%s", color, method, resetColor)
}
