package bdl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is a parsed board description file. A file may describe several
// boards.
type File struct {
	Boards []*Board `@@*`
}

// Board is one board declaration.
// Example: board ml-v1 on esp32 "first ML PCB" { ... }
type Board struct {
	Pos lexer.Position

	Name   string       `"board" @Ident`
	Device string       `"on" @Ident`
	Doc    string       `@String?`
	Body   []*Statement `"{" @@* "}"`
}

// Statement is one entry of a board or when body.
type Statement struct {
	Provides *Provides `  @@`
	Bind     *Bind     `| @@`
	When     *When     `| @@`
	Shared   *Shared   `| @@`
	Default  *Default  `| @@`
}

// Provides lists board traits.
// Example: provides esp32-audio-kit, es8388;
type Provides struct {
	Pos lexer.Position

	Traits []string `"provides" @Ident ( "," @Ident )* ";"`
}

// Bind assigns a role to a pin.
// Example: bind codec-sda to 18 shared i2c-sda;
// Example: bind fx-switch to GPIO4 as In if midi-ctrl;
type Bind struct {
	Pos lexer.Position

	Role    string `"bind" @Ident`
	Pin     string `"to" @( Int | Ident )`
	As      string `( "as" @Ident )?`
	Feature string `( "if" @Ident )?`
	Shared  string `( "shared" @Ident )? ";"`
}

// When gates a block of statements on a condition.
// Example: when es8388-i2s = 4 { ... } else { ... }
type When struct {
	Pos lexer.Position

	Cond *Cond        `"when" @@`
	Body []*Statement `"{" @@* "}"`
	Else []*Statement `( "else" "{" @@* "}" )?`
}

// Cond is a conjunction of feature tests.
type Cond struct {
	Terms []*Term `@@ ( "and" @@ )*`
}

// Term tests one feature: "adc-to-midi", "not midi-port2" or
// "es8388-i2c = 2".
type Term struct {
	Not     bool    `@"not"?`
	Feature string  `@Ident`
	Value   *string `( "=" @( Int | Ident | String ) )?`
}

// Default sets the value a feature takes on this board unless the project
// says otherwise. A bare name means enabled.
// Example: default midi-port2;
// Example: default es8388-i2s = 2;
type Default struct {
	Pos lexer.Position

	Feature string  `"default" @Ident`
	Value   *string `( "=" @( Int | Ident | String ) )? ";"`
}

// Shared declares roles allowed to use the same pin.
// Example: shared spi-cs, tft-cs at 5;
type Shared struct {
	Pos lexer.Position

	Roles []string `"shared" @Ident ( "," @Ident )+`
	At    string   `( "at" @( Int | Ident ) )? ";"`
}
