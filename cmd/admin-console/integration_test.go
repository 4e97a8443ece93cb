package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/diwise/service-chassis/pkg/infrastructure/servicerunner"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod
var path = expects.RequestPath

var dowork = servicerunner.WithWorker[AppConfig]

const adminToken string = "s3cret"

func DefaultTestFlags() FlagMap {
	return FlagMap{
		listenAddress: "",  // listen on all ipv4 and ipv6 interfaces
		servicePort:   "0", //
		controlPort:   "",  // control port disabled by default

		logFormat: "json",
	}
}

func TestIntegrateEditAndSaveRRT(t *testing.T) {
	is := is.New(t)
	ctx, cancelTest := context.WithCancel(t.Context())

	store := blobs.NewMemoryStore()
	is.NoErr(store.Put(ctx, "RRT-JSONS/devon.json", []byte(`{"name": "Devon", "price": 12}`), "application/json"))

	app, err := initialize(ctx, DefaultTestFlags(), &AppConfig{
		adminConfig: newAdminConfig(),
		opaConfig:   newAuthConfig(),
		tokens:      map[string]string{"alice": adminToken},
		docs:        documents.NewMemoryStore(),
		blobs:       store,
	})
	is.NoErr(err)

	app.Run(ctx, dowork(func(ctx context.Context, appConfig *AppConfig) error {
		defer cancelTest()

		resp, body := testRequest(appConfig.publicPort, http.MethodPost, "/api/v1/rrts/devon.json/sessions", nil)
		is.Equal(resp.StatusCode, http.StatusCreated)

		session := struct {
			ID string `json:"id"`
		}{}
		is.NoErr(json.Unmarshal([]byte(body), &session))

		resp, _ = testRequest(appConfig.publicPort, http.MethodPatch, "/api/v1/sessions/"+session.ID+"/fields",
			strings.NewReader(`{"path": "price", "text": "14"}`))
		is.Equal(resp.StatusCode, http.StatusOK)

		resp, _ = testRequest(appConfig.publicPort, http.MethodPost, "/api/v1/sessions/"+session.ID+"/save", nil)
		is.Equal(resp.StatusCode, http.StatusOK)

		saved, err := store.Get(ctx, "RRT-JSONS/devon.json")
		is.NoErr(err)
		is.Equal(string(saved), "{\n  \"name\": \"Devon\",\n  \"price\": 14\n}")

		return nil
	}))
}

func TestIntegrateStationsArePagedByConfiguredLimit(t *testing.T) {
	is := is.New(t)
	ctx, cancelTest := context.WithCancel(t.Context())

	app, err := initialize(ctx, DefaultTestFlags(), &AppConfig{
		adminConfig: newAdminConfig(),
		opaConfig:   newAuthConfig(),
		tokens:      map[string]string{"alice": adminToken},
		docs:        documents.NewMemoryStore(),
		blobs:       blobs.NewMemoryStore(),
	})
	is.NoErr(err)

	app.Run(ctx, dowork(func(ctx context.Context, appConfig *AppConfig) error {
		defer cancelTest()

		for _, station := range []string{
			`{"stationName": "Exeter St Davids", "crsCode": "EXD"}`,
			`{"stationName": "Plymouth", "crsCode": "PLY"}`,
			`{"stationName": "Truro", "crsCode": "TRU"}`,
		} {
			resp, _ := testRequest(appConfig.publicPort, http.MethodPost, "/api/v1/stations", strings.NewReader(station))
			is.Equal(resp.StatusCode, http.StatusCreated)
		}

		resp, body := testRequest(appConfig.publicPort, http.MethodGet, "/api/v1/stations?limit=50", nil)
		is.Equal(resp.StatusCode, http.StatusOK)

		page := struct {
			Items []json.RawMessage `json:"items"`
			Next  string            `json:"next"`
		}{}
		is.NoErr(json.Unmarshal([]byte(body), &page))
		is.Equal(len(page.Items), 2)
		is.True(page.Next != "")

		return nil
	}))
}

func TestIntegrateChangesAreNotified(t *testing.T) {
	is := is.New(t)
	ctx, cancelTest := context.WithCancel(t.Context())

	ms := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/notify"),
			expects.RequestBodyContaining(`"action":"created"`, `"type":"Operator"`),
		),
		Returns(
			response.Code(http.StatusNoContent),
		),
	)
	defer ms.Close()

	notifier, err := events.NewNotifier(ctx, ms.URL()+"/notify")
	is.NoErr(err)

	app, err := initialize(ctx, DefaultTestFlags(), &AppConfig{
		opaConfig: newAuthConfig(),
		tokens:    map[string]string{"alice": adminToken},
		docs:      documents.NewMemoryStore(),
		blobs:     blobs.NewMemoryStore(),
		notifier:  notifier,
	})
	is.NoErr(err)

	app.Run(ctx, dowork(func(ctx context.Context, appConfig *AppConfig) error {
		defer cancelTest()

		resp, _ := testRequest(appConfig.publicPort, http.MethodPost, "/api/v1/operators",
			strings.NewReader(`{"name": "CrossCountry", "operatorregion": "National"}`))
		is.Equal(resp.StatusCode, http.StatusCreated)

		is.NoErr(notifier.Stop())
		is.Equal(ms.RequestCount(), 1)

		return nil
	}))
}

func TestIntegrateRejectsUnknownToken(t *testing.T) {
	is := is.New(t)
	ctx, cancelTest := context.WithCancel(t.Context())

	app, err := initialize(ctx, DefaultTestFlags(), &AppConfig{
		opaConfig: newAuthConfig(),
		tokens:    map[string]string{"alice": adminToken},
		docs:      documents.NewMemoryStore(),
		blobs:     blobs.NewMemoryStore(),
	})
	is.NoErr(err)

	app.Run(ctx, dowork(func(ctx context.Context, appConfig *AppConfig) error {
		defer cancelTest()

		req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:"+appConfig.publicPort+"/api/v1/dashboard", nil)
		req.Header.Set("Authorization", "Bearer guessed")
		resp, err := http.DefaultClient.Do(req)
		is.NoErr(err)
		defer resp.Body.Close()

		is.Equal(resp.StatusCode, http.StatusUnauthorized)

		return nil
	}))
}

func testRequest(port, method, path string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, "http://127.0.0.1:"+port+path, body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, _ := http.DefaultClient.Do(req)
	respBody, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}

func newAuthConfig() io.ReadCloser {
	return io.NopCloser(bytes.NewBufferString(opaModule))
}

func newAdminConfig() io.ReadCloser {
	return io.NopCloser(bytes.NewBufferString(adminConfigFile))
}

const adminConfigFile string = `
paging:
  defaultLimit: 2
  maxLimit: 2
`

const opaModule string = `
package admin.authz

import rego.v1

default allow := false

allow := {"user": user} if {
	input.token != ""
	some user
	data.admin.tokens[user] == input.token
}
`
