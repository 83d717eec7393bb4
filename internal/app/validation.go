package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"spot_rental/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages can be looked up by payload field
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var jsonNull = []byte("null")

// Number is a JSON field expected to hold a number. It never fails to decode,
// so a wrong type surfaces as a field validation error in rule order.
type Number struct {
	Value   float64
	Present bool // key present and not null
	Valid   bool // value was a JSON number
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return nil
	}
	n.Present = true
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.Value, n.Valid = f, true
	}
	return nil
}

func Num(f float64) Number { return Number{Value: f, Present: true, Valid: true} }

// Text is a JSON field expected to hold a string; see Number.
type Text struct {
	Value   string
	Present bool
	Valid   bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return nil
	}
	t.Present = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.Value, t.Valid = s, true
	}
	return nil
}

func Str(s string) Text { return Text{Value: s, Present: true, Valid: true} }

// Filled reports a string value with non-blank content.
func (t Text) Filled() bool { return t.Valid && strings.TrimSpace(t.Value) != "" }

// Flag is a JSON field expected to hold a boolean; see Number.
// Absent and null read as false.
type Flag struct {
	Value   bool
	Invalid bool // value was not a JSON boolean
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = Flag{}
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		*f = Flag{Invalid: true}
	}
	return nil
}

// Body records whether the request body could be read as a JSON object.
// Payloads embed it so an unreadable body is reported with the other field
// rules, after existence and authorization checks.
type Body struct {
	malformed bool
}

func (b *Body) MarkMalformed() { b.malformed = true }

const msgMalformedBody = "Request body must be a JSON object"

func (b Body) check() error {
	if b.malformed {
		return invalid("body", msgMalformedBody)
	}
	return nil
}

func within(n Number, rule string) bool {
	return n.Valid && validate.Var(n.Value, rule) == nil
}

func invalid(field, msg string) error {
	return &domain.ValidationError{Field: field, Message: msg}
}

type SpotPayload struct {
	Body        `json:"-"`
	Address     Text   `json:"address"`
	City        Text   `json:"city"`
	State       Text   `json:"state"`
	Country     Text   `json:"country"`
	Lat         Number `json:"lat"`
	Lng         Number `json:"lng"`
	Name        Text   `json:"name"`
	Description Text   `json:"description"`
	Price       Number `json:"price"`
}

// ValidateSpot checks the spot rules in a fixed order and reports the first failure.
func ValidateSpot(p SpotPayload) error {
	if err := p.check(); err != nil {
		return err
	}
	switch {
	case !p.Address.Filled():
		return invalid("address", "Street address is required")
	case !p.City.Filled():
		return invalid("city", "City is required")
	case !p.State.Filled():
		return invalid("state", "State is required")
	case !p.Country.Filled():
		return invalid("country", "Country is required")
	case !within(p.Lat, "gte=-90,lte=90"):
		return invalid("lat", "Latitude is not valid")
	case !within(p.Lng, "gte=-180,lte=180"):
		return invalid("lng", "Longitude is not valid")
	case !p.Name.Filled() || validate.Var(p.Name.Value, "max=50") != nil:
		return invalid("name", "Name is required and must be less than 50 characters")
	case !p.Description.Filled():
		return invalid("description", "Description is required")
	case !p.Price.Valid:
		return invalid("price", "Price per day is required")
	case !within(p.Price, "gt=0"):
		return invalid("price", "Price per day must be a positive number")
	}
	return nil
}

// apply copies validated payload fields onto s.
func (p SpotPayload) apply(s domain.Spot) domain.Spot {
	s.Address = p.Address.Value
	s.City = p.City.Value
	s.State = p.State.Value
	s.Country = p.Country.Value
	s.Lat = p.Lat.Value
	s.Lng = p.Lng.Value
	s.Name = p.Name.Value
	s.Description = p.Description.Value
	s.Price = p.Price.Value
	return s
}

type ReviewPayload struct {
	Body   `json:"-"`
	Review Text   `json:"review"`
	Stars  Number `json:"stars"`
}

func ValidateReview(p ReviewPayload) error {
	if err := p.check(); err != nil {
		return err
	}
	switch {
	case !p.Review.Filled():
		return invalid("review", "Review text is required")
	case !p.Stars.Valid || p.Stars.Value != math.Trunc(p.Stars.Value) || !within(p.Stars, "gte=1,lte=5"):
		return invalid("stars", "Stars must be an integer from 1 to 5")
	}
	return nil
}

type ImagePayload struct {
	Body    `json:"-"`
	URL     Text `json:"url"`
	Preview Flag `json:"preview"`
}

// validateImage only requires a url; relative paths are accepted.
func validateImage(p ImagePayload) error {
	if err := p.check(); err != nil {
		return err
	}
	switch {
	case !p.URL.Filled():
		return invalid("url", "Image url is required")
	case p.Preview.Invalid:
		return invalid("preview", "Preview must be true or false")
	}
	return nil
}

type SignupPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=4,excludes=@"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
}

var signupMessages = map[string]string{
	"email":     "Invalid email",
	"username":  "Please provide a username with at least 4 characters that is not an email",
	"firstName": "First Name is required",
	"lastName":  "Last Name is required",
	"password":  "Password must be 6 characters or more",
}

type LoginPayload struct {
	Credential string `json:"credential" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"credential": "Email or username is required",
	"password":   "Password is required",
}

// validateStruct runs struct tags and maps the first failing field to its message.
func validateStruct(v any, messages map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	field := ves[0].Field()
	msg, ok := messages[field]
	if !ok {
		msg = field + " is not valid"
	}
	return invalid(field, msg)
}
