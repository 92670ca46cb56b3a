package proto

import "strings"

// Delivery is the decoded payload of a DELIVERY frame.
type Delivery struct {
	Room   string
	Sender string
	Text   string
}

// NewDelivery builds the DELIVERY frame room:sender:text.
func NewDelivery(room, sender, text string) (Message, error) {
	return NewMessage(TagDelivery, room+":"+sender+":"+text)
}

// ParseDelivery splits a DELIVERY payload on its first two colons; the text
// keeps any colons of its own.
func ParseDelivery(data string) (Delivery, error) {
	room, rest, ok := strings.Cut(data, ":")
	if !ok {
		return Delivery{}, ErrMalformedFrame
	}
	sender, text, ok := strings.Cut(rest, ":")
	if !ok {
		return Delivery{}, ErrMalformedFrame
	}
	return Delivery{Room: room, Sender: sender, Text: text}, nil
}
