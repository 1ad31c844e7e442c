package sax

import "fmt"

// event is a flattened, comparable record of one Handler callback, used so
// tests can assert.Equal a whole parse against a literal slice.
type event struct {
	kind  string
	name  string
	value string
}

func startTag(name string) event       { return event{kind: "StartTag", name: name} }
func attribute(n, v string) event      { return event{kind: "Attribute", name: n, value: v} }
func emptyElementTag() event           { return event{kind: "EmptyElementTag"} }
func endTag(name string) event         { return event{kind: "EndTag", name: name} }
func cdata(data string) event          { return event{kind: "CData", value: data} }

type recordingHandler struct {
	events  []event
	abortOn string // kind to return an error from, for HandlerAbort tests
}

func (r *recordingHandler) maybeAbort(kind string) error {
	if r.abortOn != "" && kind == r.abortOn {
		return fmt.Errorf("handler aborted on %s", kind)
	}
	return nil
}

func (r *recordingHandler) StartTag(name string) error {
	r.events = append(r.events, startTag(name))
	return r.maybeAbort("StartTag")
}

func (r *recordingHandler) Attribute(name, value string) error {
	r.events = append(r.events, attribute(name, value))
	return r.maybeAbort("Attribute")
}

func (r *recordingHandler) EmptyElementTag() error {
	r.events = append(r.events, emptyElementTag())
	return r.maybeAbort("EmptyElementTag")
}

func (r *recordingHandler) EndTag(name string) error {
	r.events = append(r.events, endTag(name))
	return r.maybeAbort("EndTag")
}

func (r *recordingHandler) CData(data string) error {
	r.events = append(r.events, cdata(data))
	return r.maybeAbort("CData")
}

// coalesced merges consecutive CData events, mirroring what a document
// builder does when reassembling text split across tokenizer flushes.
func coalesced(events []event) []event {
	var out []event
	for _, e := range events {
		if e.kind == "CData" && len(out) > 0 && out[len(out)-1].kind == "CData" {
			out[len(out)-1].value += e.value
			continue
		}
		out = append(out, e)
	}
	return out
}
