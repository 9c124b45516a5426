package planner

import (
	"fmt"
	"strings"
)

type modeKind int

const (
	modeNone modeKind = iota
	modeReset
	modeVerify
	modeGenerate
	modeManual
)

// RequestMode is the action requested for targeted images.
type RequestMode struct {
	kind modeKind
	text string
}

// Reset restores targeted images to the state found in the package.
func Reset() RequestMode { return RequestMode{kind: modeReset} }

// Verify asks the describer to critique the existing alt text.
func Verify() RequestMode { return RequestMode{kind: modeVerify} }

// Generate asks the describer for new alt text.
func Generate() RequestMode { return RequestMode{kind: modeGenerate} }

// ManualText sets the alt text of targeted images directly.
func ManualText(text string) RequestMode { return RequestMode{kind: modeManual, text: text} }

// Legacy tokens accepted in place of a literal manual text.
const (
	tokenGenerate = "_ai_"
	tokenReset    = "_reset_"
	tokenVerify   = "_verify_"
)

// ParseMode maps a manual-text argument to a mode, honoring the reserved
// tokens _ai_, _reset_ and _verify_.
func ParseMode(s string) RequestMode {
	switch s {
	case tokenGenerate:
		return Generate()
	case tokenReset:
		return Reset()
	case tokenVerify:
		return Verify()
	case "":
		return RequestMode{}
	default:
		return ManualText(s)
	}
}

// IsZero reports whether no mode was selected.
func (m RequestMode) IsZero() bool { return m.kind == modeNone }

// IsReset reports whether m is Reset.
func (m RequestMode) IsReset() bool { return m.kind == modeReset }

// IsVerify reports whether m is Verify.
func (m RequestMode) IsVerify() bool { return m.kind == modeVerify }

// IsGenerate reports whether m is Generate.
func (m RequestMode) IsGenerate() bool { return m.kind == modeGenerate }

// Manual returns the literal text and whether m is a manual mode with
// non-blank text.
func (m RequestMode) Manual() (string, bool) {
	if m.kind != modeManual {
		return "", false
	}
	t := strings.TrimSpace(m.text)
	return t, t != ""
}

// String implements fmt.Stringer.
func (m RequestMode) String() string {
	switch m.kind {
	case modeReset:
		return "reset"
	case modeVerify:
		return "verify"
	case modeGenerate:
		return "generate"
	case modeManual:
		return fmt.Sprintf("manual(%q)", m.text)
	default:
		return "none"
	}
}

// Blanket is a mode that applies to every image.
type Blanket int

const (
	// BlanketNone applies no blanket action.
	BlanketNone Blanket = iota
	// UpdateMissing generates text for images without an alt attribute or
	// whose alt text is excluded.
	UpdateMissing
	// UpdateAll generates text for every image.
	UpdateAll
	// VerifyAll verifies every image.
	VerifyAll
)

// String implements fmt.Stringer.
func (b Blanket) String() string {
	switch b {
	case UpdateMissing:
		return "update missing"
	case UpdateAll:
		return "update all"
	case VerifyAll:
		return "verify all"
	default:
		return "none"
	}
}
