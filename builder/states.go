package builder

import "fmt"

// State is a tokenizer state as reported through Builder.Transition. Only the states that
// delimit tags and attributes matter to the builder; a tokenizer may report any other
// state as StateData.
type State uint8

const (
	StateData State = iota
	StateTagOpen
	StateCloseTagOpen
	StateTagName
	StateBeforeAttributeName
	StateAttributeName
	StateAfterAttributeName
	StateBeforeAttributeValue
	StateAttributeValueDoubleQuoted
	StateAttributeValueSingleQuoted
	StateAttributeValueUnquoted
	StateAfterAttributeValueQuoted
	StateSelfClosingStartTag
	// StateEOF is entered once, at the end of the source.
	StateEOF
)

var stateNames = [...]string{
	StateData:                       "DATA",
	StateTagOpen:                    "TAG_OPEN",
	StateCloseTagOpen:               "CLOSE_TAG_OPEN",
	StateTagName:                    "TAG_NAME",
	StateBeforeAttributeName:        "BEFORE_ATTRIBUTE_NAME",
	StateAttributeName:              "ATTRIBUTE_NAME",
	StateAfterAttributeName:         "AFTER_ATTRIBUTE_NAME",
	StateBeforeAttributeValue:       "BEFORE_ATTRIBUTE_VALUE",
	StateAttributeValueDoubleQuoted: "ATTRIBUTE_VALUE_DOUBLE_QUOTED",
	StateAttributeValueSingleQuoted: "ATTRIBUTE_VALUE_SINGLE_QUOTED",
	StateAttributeValueUnquoted:     "ATTRIBUTE_VALUE_UNQUOTED",
	StateAfterAttributeValueQuoted:  "AFTER_ATTRIBUTE_VALUE_QUOTED",
	StateSelfClosingStartTag:        "SELF_CLOSING_START_TAG",
	StateEOF:                        "EOF",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// inTag reports whether s is one of the states between '<' and '>'.
func (s State) inTag() bool {
	return s != StateData && s != StateEOF
}
