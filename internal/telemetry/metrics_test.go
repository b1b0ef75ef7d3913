package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()

	assert.Same(t, m, GetMetrics())
	assert.NotNil(t, m.SessionCorruptRecordsTotal)
	assert.NotNil(t, m.SessionViewsRecordedTotal)
	assert.NotNil(t, m.APIRequestsTotal)
	assert.NotNil(t, m.APIRequestErrorsTotal)
	assert.NotNil(t, m.APIRequestDuration)
	assert.NotNil(t, m.APIRetriesTotal)
}
