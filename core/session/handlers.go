package session

import tele "gopkg.in/telebot.v4"

var inputHandlers = map[Provider]tele.HandlerFunc{}

// RegisterInputHandler associates a provider with the handler that receives
// text input while that provider's session is in progress.
func RegisterInputHandler(p Provider, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	inputHandlers[p] = h
}
