package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type registerInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"nullable,in=user,vendor,admin"`
}

type medicineInput struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Quantity int     `json:"stockQuantity" validate:"required,gte=0,integer"`
}

func TestStructRequired(t *testing.T) {
	errs := Struct(registerInput{})
	assert.True(t, HasErrors(errs))
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "role", "nullable field skipped when empty")
}

func TestStructValid(t *testing.T) {
	errs := Struct(registerInput{
		Name:     "Ayesha",
		Email:    "ayesha@example.com",
		Password: "secret1",
		Role:     "vendor",
	})
	assert.Empty(t, errs)
}

func TestStructEmail(t *testing.T) {
	errs := Struct(registerInput{Name: "Ayesha", Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, "The email must be a valid email address.", errs["email"])
}

func TestStructInRule(t *testing.T) {
	errs := Struct(registerInput{Name: "Ayesha", Email: "a@b.co", Password: "secret1", Role: "rider"})
	assert.Equal(t, "The selected role is invalid.", errs["role"])
}

func TestStructNumericBounds(t *testing.T) {
	errs := Struct(medicineInput{Name: "Panadol", Price: 0, Quantity: 10})
	assert.Contains(t, errs, "price", "zero price fails required before gt")

	errs = Struct(medicineInput{Name: "Panadol", Price: -5, Quantity: 10})
	assert.Equal(t, "The price must be greater than 0.", errs["price"])

	errs = Struct(medicineInput{Name: "Panadol", Price: 12.5, Quantity: 10})
	assert.Empty(t, errs)
}

func TestStructPointer(t *testing.T) {
	in := &registerInput{Name: "Ali", Email: "ali@sehatly.app", Password: "hunter22"}
	assert.Empty(t, Struct(in))
}

func TestStructMinMaxStrings(t *testing.T) {
	errs := Struct(registerInput{Name: "A", Email: "a@b.co", Password: "secret1"})
	assert.Equal(t, "The name must be at least 2 characters.", errs["name"])

	errs = Struct(registerInput{Name: "Ali", Email: "a@b.co", Password: "short"})
	assert.Equal(t, "The password must be at least 6 characters.", errs["password"])
}

func TestSplitRulesKeepsInParams(t *testing.T) {
	rules := splitRules("required,in=user,vendor,admin,max=10")
	assert.Equal(t, []string{"required", "in=user,vendor,admin", "max=10"}, rules)
}
