package handler

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/model"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	digitPattern    = regexp.MustCompile(`\d`)
)

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *signupReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r signupReq) Validate() error {
	const (
		userLen   = "Username must be between 3 and 20 characters"
		userChars = "Username can only contain alphanumeric characters and underscores"
		mailMsg   = "Please provide a valid email address"
		passLen   = "Password must be at least 6 characters long"
	)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error(userLen),
			validation.RuneLength(3, 20).Error(userLen),
			validation.Match(usernamePattern).Error(userChars)),
		validation.Field(&r.Email,
			validation.Required.Error(mailMsg),
			is.Email.Error(mailMsg)),
		validation.Field(&r.Password,
			validation.Required.Error(passLen),
			validation.RuneLength(6, 0).Error(passLen),
			validation.Match(digitPattern).Error("Password must contain at least one number")),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Invalid email format"),
			is.Email.Error("Invalid email format")),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

var errInvalidTags = errors.New("tags must be an array or a comma-separated string")

// TagList accepts either a JSON array of names or one comma-separated
// string. An absent, null or empty-string value stays nil.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errInvalidTags
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*t = out
	return nil
}

type articleReq struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Tags     TagList `json:"tags"`
}

func (r *articleReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r articleReq) Validate() error {
	const (
		titleMsg = "Title must be between 5 and 200 characters"
		shortMsg = "Content must be at least 50 characters long to ensure quality knowledge sharing"
		catMsg   = "Category must be one of: Tech, AI, Backend, Frontend, DevOps"
	)
	categories := make([]interface{}, len(model.Categories))
	for i, c := range model.Categories {
		categories[i] = c
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error(titleMsg),
			validation.RuneLength(5, 200).Error(titleMsg)),
		validation.Field(&r.Content,
			validation.Required.Error(shortMsg),
			validation.RuneLength(50, 0).Error(shortMsg),
			validation.RuneLength(0, 50000).Error("Content is too long (max 50,000 characters)")),
		validation.Field(&r.Category,
			validation.Required.Error(catMsg),
			validation.In(categories...).Error(catMsg)),
	)
}

type suggestReq struct {
	Content string `json:"content"`
}

func (r suggestReq) Validate() error {
	const msg = "Provide at least 20 characters for better AI suggestions"
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error(msg),
			validation.RuneLength(20, 0).Error(msg)),
	)
}

// validationError converts ozzo's per-field map into a Validation error with
// fields in name order.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validate request", err)
	}
	names := make([]string, 0, len(verrs))
	for name := range verrs {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]apperr.FieldError, 0, len(names))
	for _, name := range names {
		fields = append(fields, apperr.FieldError{Field: name, Message: verrs[name].Error()})
	}
	return apperr.Validation(fields)
}

// badBody maps a bind failure to a Validation error.
func badBody(err error) error {
	if errors.Is(err, errInvalidTags) {
		return apperr.Validation([]apperr.FieldError{{Field: "tags", Message: "Tags must be an array or a comma-separated string"}})
	}
	return apperr.Validation([]apperr.FieldError{{Field: "body", Message: "Invalid request body"}})
}
