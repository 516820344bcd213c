package invoiceclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	invoiceclient "github.com/jrsteele09/go-invoice-client"
	fakekvrepo "github.com/jrsteele09/go-invoice-client/keyvalue/repofakes"
	"github.com/jrsteele09/go-invoice-client/session"
)

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := invoiceclient.New("/api", fakekvrepo.NewFakeKVRepo())
	require.Error(t, err)
}

func TestLoginThenListCarriesBearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"token":"T1","refreshToken":"R1","user":{"id":1,"name":"A"}}`)
	})
	mux.HandleFunc("/invoices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":[{"_id":"1","invoiceNumber":"INV-001","clientName":"Acme"}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	app, err := invoiceclient.New(server.URL, fakekvrepo.NewFakeKVRepo())
	require.NoError(t, err)

	_, err = app.Sessions.Login(context.Background(), session.Credentials{Email: "a@example.com", Password: "b"})
	require.NoError(t, err)

	list, err := app.Invoices.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "INV-001", list[0].InvoiceNumber)
	require.True(t, app.Sessions.IsAuthenticated())
}
