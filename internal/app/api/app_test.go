// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/app"
	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/log"
)

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	b := &app.Bootstrap{
		Config:  cfg,
		Logger:  log.Default(),
		Catalog: metadata.NewMemoryStore(),
		Objects: object.NewMemoryStore(),
	}
	a, err := NewApp(b)
	require.NoError(t, err)
	return a
}

func TestNewApp_NilBootstrap(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
	_, err = NewApp(&app.Bootstrap{})
	assert.Error(t, err)
}

func TestApp_Addr(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, ":5000", newTestApp(t, cfg).Addr())
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 8080
	assert.Equal(t, "127.0.0.1:8080", newTestApp(t, cfg).Addr())
}

func TestApp_BuildServesRoutes(t *testing.T) {
	cfg := &config.Config{}
	cfg.API.CORS.Enable = true
	a := newTestApp(t, cfg)
	h := a.build(":0")

	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0},
		ut.Header{Key: "Origin", Value: "http://localhost:3000"})
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, "*", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))

	w = ut.PerformRequest(h.Engine, "GET", "/api/history", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	assert.JSONEq(t, `{"history":[]}`, string(w.Result().Body()))
	assert.Nil(t, a.otelProvider)
}

func TestApp_TracingWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg := &config.Config{}
	cfg.Monitoring.Tracing.Enable = true
	a := newTestApp(t, cfg)
	h := a.build(":0")
	require.NotNil(t, h)
	assert.Nil(t, a.otelProvider)
}

func TestApp_ShutdownWithoutRun(t *testing.T) {
	a := newTestApp(t, &config.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, a.Shutdown(ctx))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseDuration("30s", 0))
	assert.Equal(t, time.Duration(0), parseDuration("x", 0))
}
