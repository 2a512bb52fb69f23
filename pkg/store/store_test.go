package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/darkan/pkg/store"
	"github.com/haasonsaas/darkan/pkg/store/storetest"
)

func TestHostStatusIsDerived(t *testing.T) {
	key := "k"
	empty := ""
	tests := []struct {
		name string
		host store.Host
		want store.HostStatus
	}{
		{"new", store.Host{}, store.StatusNew},
		{"accepted", store.Host{Acknowledged: true, Key: &key}, store.StatusAccepted},
		{"declined", store.Host{Acknowledged: true}, store.StatusDeclined},
		{"declined with empty key", store.Host{Acknowledged: true, Key: &empty}, store.StatusDeclined},
		{"key without acknowledgement", store.Host{Key: &key}, store.StatusInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.host.Status())
		})
	}
}

func TestHostQueriesFilterByStatus(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	accepted := storetest.AcceptedHost(t, st, "web1", "key-1")
	pending := storetest.PendingHost(t, st, "web2")
	declined := &store.Host{Hostname: "web3", Acknowledged: true}
	require.NoError(t, st.CreateHost(ctx, declined))
	empty := ""
	emptyKey := &store.Host{Hostname: "web4", Acknowledged: true, Key: &empty}
	require.NoError(t, st.CreateHost(ctx, emptyKey))
	require.Equal(t, store.StatusDeclined, emptyKey.Status())

	hosts, err := st.AcceptedHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	require.Equal(t, accepted.ID, hosts[0].ID)

	hosts, err = st.NewHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	require.Equal(t, pending.ID, hosts[0].ID)

	found, err := st.HostByHostname(ctx, "web2")
	require.NoError(t, err)
	require.Equal(t, pending.ID, found.ID)

	_, err = st.HostByHostname(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.HostByID(ctx, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLatestReportLoadsValues(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	host := storetest.AcceptedHost(t, st, "web1", "key-1")

	first := &store.Report{HostID: host.ID, Values: []store.Value{store.FloatValue("cpu", "load", 0.5)}}
	require.NoError(t, st.CreateReport(ctx, first))
	second := &store.Report{HostID: host.ID, Values: []store.Value{
		store.FloatValue("cpu", "load", 0.92),
		store.IntegerValue("host", "procs", 212),
		store.StringValue("host", "os", "linux"),
	}}
	require.NoError(t, st.CreateReport(ctx, second))

	latest, err := st.LatestReport(ctx, host.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.Len(t, latest.Values, 3)
	require.Equal(t, 0.92, latest.Values[0].Interface())
	require.Equal(t, int64(212), latest.Values[1].Interface())
	require.Equal(t, "linux", latest.Values[2].Interface())

	_, err = st.LatestReport(ctx, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteHostRemovesReports(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	host := storetest.PendingHost(t, st, "web1")
	other := storetest.PendingHost(t, st, "web2")
	require.NoError(t, st.CreateReport(ctx, &store.Report{HostID: host.ID, Values: []store.Value{store.IntegerValue("a", "b", 1)}}))
	require.NoError(t, st.CreateReport(ctx, &store.Report{HostID: other.ID, Values: []store.Value{store.IntegerValue("a", "b", 2)}}))

	require.NoError(t, st.DeleteHost(ctx, host.ID))
	require.Equal(t, int64(1), storetest.Count(t, st, &store.Host{}))
	require.Equal(t, int64(1), storetest.Count(t, st, &store.Report{}))
	require.Equal(t, int64(1), storetest.Count(t, st, &store.Value{}))

	require.ErrorIs(t, st.DeleteHost(ctx, host.ID), store.ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Transaction(ctx, func(tx store.Store) error {
		require.NoError(t, tx.CreateHost(ctx, &store.Host{Hostname: "web1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, storetest.Count(t, st, &store.Host{}))
}

func TestTriggerStateDefaultsAndUpserts(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	state, err := st.TriggerState(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, uint(7), state.TriggerID)
	require.False(t, state.Triggered)

	state.Triggered = true
	require.NoError(t, st.SaveTriggerState(ctx, state))
	state.Triggered = false
	require.NoError(t, st.SaveTriggerState(ctx, state))

	loaded, err := st.TriggerState(ctx, 7)
	require.NoError(t, err)
	require.False(t, loaded.Triggered)
	require.Equal(t, int64(1), storetest.Count(t, st, &store.TriggerState{}))
}

func TestKeysAreUnique(t *testing.T) {
	st := storetest.New(t)
	storetest.AcceptedHost(t, st, "web1", "same")
	key := "same"
	err := st.CreateHost(context.Background(), &store.Host{Hostname: "web2", Acknowledged: true, Key: &key})
	require.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open("oracle", "")
	require.Error(t, err)
}
