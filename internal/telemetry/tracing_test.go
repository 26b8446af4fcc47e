package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_None(t *testing.T) {
	t.Setenv(EnvExporter, "")

	for _, exporter := range []string{"", "none", " NONE "} {
		tp, shutdown, err := Setup(context.Background(), Config{Exporter: exporter})
		require.NoError(t, err, exporter)
		_, isSDK := tp.(*sdktrace.TracerProvider)
		assert.False(t, isSDK, exporter)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := Setup(context.Background(), Config{
		Exporter:       ExporterStdout,
		ServiceName:    "syfhack",
		ServiceVersion: "test",
		Writer:         &buf,
	})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "retrieval.IndexCorpus")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "retrieval.IndexCorpus")
	assert.Contains(t, buf.String(), "syfhack")
}

func TestSetup_ExporterFromEnv(t *testing.T) {
	t.Setenv(EnvExporter, "stdout")

	var buf bytes.Buffer
	tp, shutdown, err := Setup(context.Background(), Config{Writer: &buf})
	require.NoError(t, err)
	_, isSDK := tp.(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_Unknown(t *testing.T) {
	_, _, err := Setup(context.Background(), Config{Exporter: "zipkin"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}
