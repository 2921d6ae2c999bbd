package render

import "fmt"

// Theme holds colors for CFG rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by kind. A pair linked both ways uses EdgeJump.
	EdgeFallthrough string
	EdgeJump        string

	// Node accents.
	EntryBorder string // procedure entry block
	ReturnFill  string // blocks ending in RET
	OpenFill    string // blocks running off the end of the program
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeFallthrough: "#424242", // dark gray
	EdgeJump:        "#0B3D91", // NASA blue

	EntryBorder: "#0B3D91",
	ReturnFill:  "#ECEFF1", // blue-gray 50
	OpenFill:    "#FFEBEE", // red 50
}

// Mono is black on white with no accents beyond line weight.
var Mono = Theme{
	Background: "white",
	NodeFill:   "white",
	NodeBorder: "black",
	TextColor:  "black",

	EdgeFallthrough: "black",
	EdgeJump:        "black",

	EntryBorder: "black",
	ReturnFill:  "#EEEEEE",
	OpenFill:    "#DDDDDD",
}

// ThemeByName resolves a theme name. "plain" and "" return nil (no styling).
func ThemeByName(name string) (*Theme, error) {
	switch name {
	case "", "plain":
		return nil, nil
	case "nasa":
		t := NASA
		return &t, nil
	case "mono":
		t := Mono
		return &t, nil
	}
	return nil, fmt.Errorf("render: unknown theme %q", name)
}
