// file: jsbridge/pkg/x_log/style.go
package x_log

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

//
// ---------- IBM Carbon Colors ----------

const (
	ColorTeal40    = "#3ddbd9"
	ColorBlue60    = "#4589ff"
	ColorBlue40    = "#78a9ff"
	ColorBlue70    = "#0043ce"
	ColorBlueBase  = "#0f62fe"
	ColorRed60     = "#da1e28"
	ColorRedStrong = "#ff0000"
	ColorOrange40  = "#ff832b"
	ColorGray60    = "#8d8d8d"
	ColorGray10    = "#f4f4f4"
	ColorGray90    = "#262626"
)

//
// ---------- Styles Definition ----------

// Styles defines all formatting styles used for structured output
type Styles struct {
	Out               io.Writer                 // output target
	Timestamp         lipgloss.Style            // style for timestamps
	Levels            map[Level]lipgloss.Style  // level-to-style mapping
	Keys              map[string]lipgloss.Style // custom field keys
	Values            map[string]lipgloss.Style // custom field values
	DefaultKeyStyle   lipgloss.Style            // fallback for unknown keys
	DefaultValueStyle lipgloss.Style            // fallback for unknown values
}

//
// ---------- Theme Selectors ----------

// DefaultStylesByName returns a theme by name ("dark", "light")
func DefaultStylesByName(name string) *Styles {
	switch strings.ToLower(name) {
	case "light":
		return DefaultStylesLight()
	default:
		return DefaultStylesDark()
	}
}

//
// ---------- Console Formatter ----------

// ConsoleWriterWithStyles builds a zerolog.ConsoleWriter with styles
func ConsoleWriterWithStyles(styles *Styles) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        styles.Out,
		TimeFormat: "01-02 15:04:05",

		FormatLevel: func(i any) string {
			name := strings.ToLower(fmt.Sprint(i))
			lvl, err := zerolog.ParseLevel(name)
			if err != nil || name == "" {
				return styles.DefaultKeyStyle.Render("???")
			}
			short := strings.ToUpper(name)
			if len(short) > 3 {
				short = short[:3]
			}
			if style, ok := styles.Levels[lvl]; ok {
				return style.Padding(0, 1).Render(short)
			}
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorGray10)).
				Background(lipgloss.Color(levelColor(lvl))).
				Padding(0, 1).
				Render(short)
		},

		FormatTimestamp: func(i any) string {
			return styles.Timestamp.Render(fmt.Sprintf("[%s]", i))
		},

		FormatFieldName: func(i any) string {
			key := fmt.Sprint(i)
			style, ok := styles.Keys[key]
			if !ok {
				style = styles.DefaultKeyStyle
			}
			eqStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60))
			return style.Render(key) + eqStyle.Render("=")
		},

		FormatFieldValue: func(i any) string {
			return styles.DefaultValueStyle.Render(fmt.Sprint(i))
		},

		FormatMessage: func(i any) string {
			if i == nil {
				return ""
			}
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorGray10)).
				Render(fmt.Sprint(i))
		},
	}
}

func levelColor(lvl Level) string {
	switch lvl {
	case zerolog.TraceLevel, DebugLevel:
		return ColorTeal40
	case InfoLevel:
		return ColorBlue60
	case WarnLevel:
		return ColorOrange40
	case ErrorLevel:
		return ColorRed60
	case FatalLevel, zerolog.PanicLevel:
		return ColorRedStrong
	default:
		return ColorGray60
	}
}

//
// ---------- Dark Theme ----------

func DefaultStylesDark() *Styles {
	return &Styles{
		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray60)).
			Width(16),

		DefaultKeyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue40)),

		DefaultValueStyle: lipgloss.NewStyle(),

		Levels: map[Level]lipgloss.Style{
			InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue60)),
			WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOrange40)),
			ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
			FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRedStrong)),
		},

		Keys: map[string]lipgloss.Style{
			"isolate": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"channel": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"script":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"err":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},

		Values: map[string]lipgloss.Style{
			"isolate": lipgloss.NewStyle().Italic(true),
			"script":  lipgloss.NewStyle().Bold(true),
			"err":     lipgloss.NewStyle().Bold(true),
			"module":  lipgloss.NewStyle(),
		},
	}
}

//
// ---------- Light Theme ----------

func DefaultStylesLight() *Styles {
	return &Styles{
		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray60)).
			Width(16),

		DefaultKeyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlueBase)),

		DefaultValueStyle: lipgloss.NewStyle(),

		Levels: map[Level]lipgloss.Style{
			InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue70)),
			WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOrange40)),
			ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
			FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRedStrong)),
		},

		Keys: map[string]lipgloss.Style{
			"isolate": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"channel": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"script":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"err":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},

		Values: map[string]lipgloss.Style{
			"isolate": lipgloss.NewStyle().Italic(true),
			"script":  lipgloss.NewStyle().Bold(true),
			"err":     lipgloss.NewStyle().Bold(true),
			"module":  lipgloss.NewStyle(),
		},
	}
}
