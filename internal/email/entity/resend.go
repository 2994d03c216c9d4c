package entity

// ArgType is the value type of a resend operation argument.
type ArgType string

const (
	ArgString   ArgType = "string"
	ArgInt      ArgType = "int"
	ArgFloat    ArgType = "float"
	ArgBoolean  ArgType = "boolean"
	ArgDatetime ArgType = "datetime"
	ArgJSON     ArgType = "json"
)

// ArgDefinition describes one argument a resend operation accepts.
type ArgDefinition struct {
	Name         string  `json:"name"`
	Type         ArgType `json:"type"`
	Required     bool    `json:"required"`
	DefaultValue any     `json:"defaultValue,omitempty"`
	Label        string  `json:"label,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// Arg is one argument value sent by a client. Values arrive as strings.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResendOption is a resend operation currently available for an entity.
type ResendOption struct {
	Type        string          `json:"type"`
	EntityType  Kind            `json:"entityType"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Args        []ArgDefinition `json:"args,omitempty"`
}
