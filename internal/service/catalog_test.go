package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

func TestRoomInputValidate(t *testing.T) {
	typeID := uint64(1)
	ok := RoomInput{RoomNumber: "101", RoomType: "Suite", Capacity: 2, Beds: 1}
	tests := []struct {
		name  string
		mod   func(*RoomInput)
		valid bool
	}{
		{"ok", func(*RoomInput) {}, true},
		{"type by id", func(in *RoomInput) { in.RoomType = ""; in.RoomTypeID = &typeID }, true},
		{"no number", func(in *RoomInput) { in.RoomNumber = " " }, false},
		{"long number", func(in *RoomInput) { in.RoomNumber = "12345678901" }, false},
		{"zero capacity", func(in *RoomInput) { in.Capacity = 0 }, false},
		{"capacity 11", func(in *RoomInput) { in.Capacity = 11 }, false},
		{"beds 11", func(in *RoomInput) { in.Beds = 11 }, false},
		{"no type", func(in *RoomInput) { in.RoomType = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ok
			tt.mod(&in)
			err := in.validate()
			if (err == nil) != tt.valid {
				t.Fatalf("validate() = %v, valid=%v", err, tt.valid)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestValidateRoomType(t *testing.T) {
	good := model.RoomType{Name: " Junior Suite ", DefaultCapacity: 2, DefaultBeds: 1}
	if err := validateRoomType(&good); err != nil || good.Name != "Junior Suite" {
		t.Fatalf("validateRoomType = %v, name %q", err, good.Name)
	}
	for _, name := range []string{"ab", "Suite 2", "Deluxe-Room"} {
		rt := model.RoomType{Name: name, DefaultCapacity: 2, DefaultBeds: 1}
		if err := validateRoomType(&rt); !errors.Is(err, ErrValidation) {
			t.Errorf("name %q: err = %v", name, err)
		}
	}
}

func TestValidateService(t *testing.T) {
	tests := []struct {
		open, close string
		valid       bool
	}{
		{"08:00", "22:00", true},
		{"22:00", "08:00", false},
		{"09:00", "09:00", false},
		{"9am", "22:00", false},
	}
	for _, tt := range tests {
		sv := model.Service{Name: "Spa", OpeningTime: tt.open, ClosingTime: tt.close}
		err := validateService(&sv)
		if (err == nil) != tt.valid {
			t.Errorf("%s-%s: err = %v", tt.open, tt.close, err)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{repository.ErrRoomNotFound, ErrNotFound},
		{fmt.Errorf("wrapped: %w", repository.ErrUserNotFound), ErrNotFound},
		{repository.ErrDuplicate, ErrConflict},
		{repository.ErrEmailExists, ErrConflict},
		{repository.ErrConflict, ErrConflict},
		{repository.ErrConcurrentUpdate, ErrConcurrency},
	}
	for _, tt := range tests {
		if got := translate(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("translate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if translate(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
