package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "SERVER_PORT=9090\nPOSTGRES_DB=bikes\nKAFKA_BROKERS=k1:9092, k2:9092\nLISTING_CACHE_TTL=120s\nRATE_LIMIT_CAPACITY=5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AUTH_TOKEN_KEY", "from-env-from-env-from-env-from-env")

	cf := GetConfig()
	require.Equal(t, "9090", cf.ServerPort)
	require.Equal(t, "bikes", cf.DbName)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cf.KafkaBrokerList())
	require.Equal(t, 120*time.Second, cf.ListingCacheTTL)
	require.Equal(t, 600*time.Second, cf.BannerCacheTTL)
	require.Equal(t, 5, cf.RateLimitCapacity)
	require.Equal(t, "from-env-from-env-from-env-from-env", cf.AuthTokenKey)
	require.Equal(t, "listing-events", cf.KafkaListingTopic)

	// singleton
	require.Same(t, cf, GetConfig())
}
