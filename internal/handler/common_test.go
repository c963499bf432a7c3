package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/apiclient"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/repository"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{sale.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("get movie: %w", apiclient.ErrNotFound), http.StatusNotFound},
		{sale.ErrBusy, http.StatusLocked},
		{fmt.Errorf("create order: %w", &apiclient.APIError{StatusCode: http.StatusConflict}), http.StatusConflict},
		{fmt.Errorf("seat A2: %w", sale.ErrSeatUnavailable), http.StatusConflict},
		{repository.ErrConflict, http.StatusConflict},
		{sale.ErrAlreadyPaid, http.StatusConflict},
		{sale.ErrWrongStep, http.StatusConflict},
		{sale.ErrNoOrder, http.StatusBadRequest},
		{&apiclient.APIError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{apiclient.ErrUnauthorized, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
