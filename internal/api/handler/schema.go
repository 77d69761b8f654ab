package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// flexibleID accepts an id sent either as a JSON number or as a numeric
// string, since map clients carry ids as strings.
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", b)
	}
	*id = flexibleID(n)
	return nil
}

// jsonFieldName names validation fields after their json or query tag.
func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// --- Request / Response types ---

type createUserRequest struct {
	Username       string `json:"username"       validate:"required,min=2,max=64"`
	Password       string `json:"password"       validate:"omitempty,min=6,max=72"`
	Email          string `json:"email"          validate:"omitempty,email"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
	GoogleID       string `json:"googleId"       validate:"omitempty,max=128"`
	Role           string `json:"role"           validate:"omitempty,oneof=commuter business cityPlanner"`
}

type googleLoginRequest struct {
	Username       string `json:"username"       validate:"required,max=64"`
	Email          string `json:"email"          validate:"omitempty,email"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
	GoogleID       string `json:"googleId"       validate:"required,max=128"`
}

type googleLoginResponse struct {
	Success bool                `json:"success"`
	User    *ports.UserSnapshot `json:"user"`
}

type selectRouteRequest struct {
	RouteID flexibleID `json:"routeId" validate:"required,gt=0"`
}

type selectRouteResponse struct {
	Success       bool                  `json:"success"`
	SelectedRoute *domain.SelectedRoute `json:"selectedRoute"`
}

type updateAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type redeemRequest struct {
	OptionID flexibleID `json:"optionId" validate:"required,gt=0"`
	Cost     int64      `json:"cost"     validate:"required,gt=0"`
}

type redeemResponse struct {
	Success     bool                     `json:"success"`
	Transaction *domain.TokenTransaction `json:"transaction"`
}

type dashboardQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=commuter business cityPlanner"`
}
