package sri

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/licitai/internal/domain/registry"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/?ruc={ruc}", 2*time.Second)
}

func TestLookupSuccess(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1790012345001", r.URL.Query().Get("ruc"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"numeroRuc": "1790012345001",
			"razonSocial": "CONSTRUCTORA ABC S.A.",
			"estadoContribuyenteRuc": "ACTIVO",
			"actividadEconomicaPrincipal": "CONSTRUCCION DE CARRETERAS",
			"contribuyenteFantasma": false,
			"transaccionesInexistente": false
		}]`))
	})

	tp, err := c.Lookup(context.Background(), "1790012345001")
	require.NoError(t, err)
	assert.Equal(t, "CONSTRUCTORA ABC S.A.", tp.RazonSocial)
	assert.Equal(t, "ACTIVO", tp.Estado)
	assert.True(t, tp.Activo())
}

func TestLookupSingleObjectResponse(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"razonSocial": "EMPRESA UNIPERSONAL", "estadoContribuyenteRuc": "ACTIVO"}`))
	})

	tp, err := c.Lookup(context.Background(), "0990876543001")
	require.NoError(t, err)
	assert.Equal(t, "EMPRESA UNIPERSONAL", tp.RazonSocial)
	// RUC filled in from the query when the payload omits it
	assert.Equal(t, "0990876543001", tp.RUC)
}

func TestLookupEmptyArrayIsNotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.Lookup(context.Background(), "1790012345001")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestLookup404IsNotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Lookup(context.Background(), "1790012345001")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestLookupServerErrorIsTransient(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Lookup(context.Background(), "1790012345001")
	assert.True(t, registry.IsTransient(err))
}

func TestLookupBadRequestIsPermanent(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Lookup(context.Background(), "1790012345001")
	require.Error(t, err)
	assert.False(t, registry.IsTransient(err))
	assert.NotErrorIs(t, err, registry.ErrNotFound)
}

func TestLookupMalformedPayloadIsPermanent(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>mantenimiento</html>`))
	})

	_, err := c.Lookup(context.Background(), "1790012345001")
	require.Error(t, err)
	assert.False(t, registry.IsTransient(err))
}

func TestLookupTimeoutIsTransient(t *testing.T) {
	blocked := make(chan struct{})
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	})
	// Registered after newServer so this cleanup runs before srv.Close,
	// unblocking the handler the server is waiting on.
	t.Cleanup(func() { close(blocked) })
	c.http.Timeout = 50 * time.Millisecond

	_, err := c.Lookup(context.Background(), "1790012345001")
	assert.True(t, registry.IsTransient(err))
}
