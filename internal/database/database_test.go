package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ieltsgenai/prep-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect("sqlite:file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable(&models.AssessmentRecord{}))
	require.True(t, db.Migrator().HasTable(&models.SafetyAuditEvent{}))
}

func TestConnectRejectsEmptyURLs(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)

	_, err = Connect("sqlite:")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "", "ielts-test")
	require.Error(t, err)

	_, err = ConnectNATS("", "ielts-test")
	require.Error(t, err)
}

func TestConnectRedisPingsServer(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr(), "ielts-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.Equal(t, "ielts-test", client.Options().ClientName)

	server.Close()
	_, err = ConnectRedis(context.Background(), "redis://"+server.Addr(), "ielts-test")
	require.ErrorContains(t, err, "unable to reach result cache")

	_, err = ConnectRedis(context.Background(), "://bad", "ielts-test")
	require.ErrorContains(t, err, "failed to parse redis url")
}
