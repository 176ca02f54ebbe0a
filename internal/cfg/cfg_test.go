package cfg

import (
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	for k, v := range map[string]string{
		"POSTGRES_USER":           "store",
		"POSTGRES_PASSWORD":       "secret",
		"POSTGRES_DB":             "storefront",
		"RAZORPAY_KEY_ID":         "rzp_test_key",
		"RAZORPAY_KEY_SECRET":     "rzp_secret",
		"RAZORPAY_WEBHOOK_SECRET": "whsec",
		"ADMIN_PASSWORD_HASH":     "ABCDEF",
		"ADMIN_JWT_SECRET":        "jwt-secret",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	for _, k := range []string{"HTTP_PORT", "CHECKOUT_THROTTLE_INTERVAL", "CHECKOUT_THROTTLE_BACKEND", "KAFKA_BROKERS", "PAYMENT_CURRENCY", "MINIO_USE_SSL", "MINIO_ENDPOINT", "BUCKET_NAME", "MINIO_PUBLIC_URL"} {
		t.Setenv(k, "")
	}

	c, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, "http://localhost:8080/swagger/doc.json", c.Http.SwaggerURL)
	assert.Equal(t, 2*time.Second, c.Checkout.ThrottleInterval)
	assert.Equal(t, ThrottleBackendRedis, c.Checkout.ThrottleBackend)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "INR", c.Payment.Currency)
	assert.Equal(t, "http://minio:9000/products", c.Minio.PublicURL)
	assert.Equal(t, "abcdef", c.Admin.PasswordHash)
	assert.Equal(t, 24*time.Hour, c.Admin.TokenTTL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHECKOUT_THROTTLE_INTERVAL", "500ms")
	t.Setenv("CHECKOUT_THROTTLE_BACKEND", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("POSTGRES_MAX_CONNS", "25")

	c, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, c.Checkout.ThrottleInterval)
	assert.Equal(t, ThrottleBackendMemory, c.Checkout.ThrottleBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, int32(25), c.Db.MaxConns)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "missing webhook secret", key: "RAZORPAY_WEBHOOK_SECRET", value: "", wantErr: e.ErrMissingEnvVariable},
		{name: "missing jwt secret", key: "ADMIN_JWT_SECRET", value: "", wantErr: e.ErrMissingEnvVariable},
		{name: "bad duration", key: "CHECKOUT_THROTTLE_INTERVAL", value: "two seconds", wantErr: e.ErrIncorrectEnvVariable},
		{name: "unknown throttle backend", key: "CHECKOUT_THROTTLE_BACKEND", value: "memcached", wantErr: e.ErrIncorrectEnvVariable},
		{name: "bad redis db", key: "REDIS_DB_ID", value: "zero", wantErr: e.ErrIncorrectEnvVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			c, err := Load(logger.NewNop())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.key)
			assert.Nil(t, c)
		})
	}
}
