package wikiengine

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/wikiengine/entries"
)

const maxFieldLength = 100

// newPageInput is the submitted create form.
type newPageInput struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

func (in *newPageInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Author = strings.TrimSpace(in.Author)
}

// Validate checks the required fields and their lengths.
func (in newPageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, maxFieldLength),
			validation.By(validTitle),
		),
		validation.Field(&in.Category,
			validation.Required.Error("category is required"),
			validation.RuneLength(1, maxFieldLength),
		),
		validation.Field(&in.Author,
			validation.Required.Error("author is required"),
			validation.RuneLength(1, maxFieldLength),
		),
		validation.Field(&in.Content, validation.Required.Error("content is required")),
	)
}

// editInput is the submitted edit form.
type editInput struct {
	Content string `json:"content"`
}

// Validate requires non-blank content.
func (in editInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required.Error("content is required")),
	)
}

func validTitle(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if err := entries.ValidateTitle(s); err != nil {
		return validation.NewError("validation_title_invalid", "title may not contain slashes or be . or ..")
	}
	return nil
}

// fieldErrors flattens ozzo errors into field -> message. Errors that are
// not per-field are returned under "".
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, e := range verrs {
			out[field] = e.Error()
		}
		return out
	}
	out[""] = err.Error()
	return out
}
