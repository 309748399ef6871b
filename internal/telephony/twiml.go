// Package telephony adapts the Twilio voice webhook surface to the dialogue
// engine: it parses incoming call turns, validates webhook signatures and
// renders TwiML replies.
package telephony

import (
	"encoding/xml"
	"fmt"
)

const (
	// speechLanguage is the recognition and synthesis locale for calls.
	speechLanguage = "en-GB"

	// speechTimeout lets Twilio decide when the caller has finished talking.
	speechTimeout = "auto"
)

// Response is the root TwiML document.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks text to the caller.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects the caller's next utterance as speech and posts it back.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Say           *Say     `xml:",omitempty"`
}

// Redirect sends the call back to an action URL, used to keep the gather
// loop alive when Twilio heard nothing.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr"`
	URL     string   `xml:",chardata"`
}

// Render serializes a TwiML response with the XML declaration Twilio expects.
func Render(resp Response) ([]byte, error) {
	body, err := xml.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("telephony: render twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// GatherPrompt builds the standard turn reply: speak the dialogue engine's
// response, listen for the next utterance, and loop back to the turn URL if
// the caller stays silent.
func GatherPrompt(text, actionURL string) Response {
	return Response{
		Verbs: []any{
			Gather{
				Input:         "speech",
				Action:        actionURL,
				Method:        "POST",
				Language:      speechLanguage,
				SpeechTimeout: speechTimeout,
				Say:           &Say{Language: speechLanguage, Text: text},
			},
			Redirect{Method: "POST", URL: actionURL},
		},
	}
}

// SayHangup speaks a final message and lets the call end.
func SayHangup(text string) Response {
	return Response{
		Verbs: []any{
			Say{Language: speechLanguage, Text: text},
		},
	}
}
