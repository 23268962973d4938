package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrCanceled reports that the user abandoned the form (end of input).
var ErrCanceled = errors.New("form canceled")

// Field is one prompt in a form. Default carries the existing value in edit
// mode; pressing Enter keeps it. Optional fields accept an empty answer.
// Transform normalizes input before Validate sees it.
type Field struct {
	Label     string
	Default   string
	Optional  bool
	Secret    bool
	Transform func(string) string
	Validate  func(string) error
}

// Form prompts a field sequence on a terminal. ReadSecret is injectable so
// tests can run without a TTY.
type Form struct {
	In         *bufio.Scanner
	Out        io.Writer
	ReadSecret func(prompt string) (string, error)
}

// Fill prompts every field in order, re-asking until the value validates.
// It returns the accepted values in field order, or ErrCanceled when input
// ends mid-form.
func (f *Form) Fill(fields []Field) ([]string, error) {
	values := make([]string, 0, len(fields))
	for _, field := range fields {
		value, err := f.ask(field)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func (f *Form) ask(field Field) (string, error) {
	for {
		raw, err := f.read(field)
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(raw)

		if value == "" && field.Default != "" {
			return field.Default, nil
		}
		if value == "" && field.Optional {
			return "", nil
		}
		if field.Transform != nil {
			value = field.Transform(value)
		}
		if field.Validate != nil {
			if err := field.Validate(value); err != nil {
				fmt.Fprintf(f.Out, "  %v\n", err)
				continue
			}
		}
		if value == "" && !field.Optional {
			fmt.Fprintf(f.Out, "  %s is required\n", field.Label)
			continue
		}
		return value, nil
	}
}

func (f *Form) read(field Field) (string, error) {
	prompt := field.Label
	switch {
	case field.Default != "":
		prompt = fmt.Sprintf("%s [%s]", field.Label, field.Default)
	case field.Optional:
		prompt = field.Label + " (optional)"
	}
	prompt += ": "

	if field.Secret {
		if f.ReadSecret == nil {
			return "", errors.New("no secret reader configured")
		}
		return f.ReadSecret(prompt)
	}

	fmt.Fprint(f.Out, prompt)
	if !f.In.Scan() {
		return "", ErrCanceled
	}
	return f.In.Text(), nil
}
