package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObserveWrite(t *testing.T) {
	before := testutil.ToFloat64(writesTotal.WithLabelValues("2", "false"))
	bytesBefore := testutil.ToFloat64(bytesTotal.WithLabelValues("2"))

	Recorder{}.ObserveWrite(2, 30, 120*time.Microsecond, false)
	Recorder{}.ObserveWrite(2, 3, 20*time.Microsecond, true)

	assert.Equal(t, before+1, testutil.ToFloat64(writesTotal.WithLabelValues("2", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(writesTotal.WithLabelValues("2", "true")))
	assert.Equal(t, bytesBefore+33, testutil.ToFloat64(bytesTotal.WithLabelValues("2")))
}

func TestBrightnessAndErrors(t *testing.T) {
	SetBrightness(0.4)
	assert.Equal(t, 0.4, testutil.ToFloat64(brightness))

	ControlError("redis")
	assert.Equal(t, 1.0, testutil.ToFloat64(writeErrors.WithLabelValues("redis")))
}

func TestHandler(t *testing.T) {
	Recorder{}.ObserveWrite(5, 1, time.Microsecond, false)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ws2812_strip_writes_total"))
}
