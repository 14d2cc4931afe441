package viewer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splatview/internal/assets"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/internal/sampler"
)

func recv(t *testing.T, q *LoadQueue) LoadResult {
	t.Helper()
	select {
	case r := <-q.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load result")
		return LoadResult{}
	}
}

func TestLoadQueueKeepsOrder(t *testing.T) {
	q := NewLoadQueue(8)
	defer q.Close()

	for _, name := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Job{Name: name, Build: func() (*pointcloud.Cloud, error) {
			return cloudOf(name, 1), nil
		}}))
	}
	for _, want := range []string{"a", "b", "c"} {
		r := recv(t, q)
		require.NoError(t, r.Err)
		assert.Equal(t, want, r.Cloud.Name)
	}
}

func TestLoadQueueCarriesErrors(t *testing.T) {
	q := NewLoadQueue(2)
	defer q.Close()

	boom := errors.New("boom")
	q.Enqueue(Job{Name: "bad", Build: func() (*pointcloud.Cloud, error) { return nil, boom }, Activate: true})
	r := recv(t, q)
	assert.ErrorIs(t, r.Err, boom)
	assert.Equal(t, "bad", r.Name)
	assert.True(t, r.Activate)
}

func TestLoadQueueRejectsAfterClose(t *testing.T) {
	q := NewLoadQueue(1)
	q.Close()
	q.Close()
	assert.False(t, q.Enqueue(Job{Name: "late", Build: func() (*pointcloud.Cloud, error) { return nil, nil }}))
}

func TestLoadQueueCloseWithUndrainedResults(t *testing.T) {
	q := NewLoadQueue(1)
	for i := 0; i < 3; i++ {
		q.Enqueue(Job{Name: "x", Build: func() (*pointcloud.Cloud, error) { return cloudOf("x", 1), nil }})
	}
	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an undrained result")
	}
}

func TestStartupJobsOrder(t *testing.T) {
	loader := assets.NewLoader(2, sampler.NewSource(1))
	jobs := StartupJobs(loader, 3, []string{"/missing/a.xyz"})
	require.Len(t, jobs, 3)
	assert.Equal(t, "cube", jobs[0].Name)
	assert.Equal(t, "sphere", jobs[1].Name)
	assert.Equal(t, "/missing/a.xyz", jobs[2].Name)

	cube, err := jobs[0].Build()
	require.NoError(t, err)
	assert.Equal(t, 24, cube.Len())

	sphere, err := jobs[1].Build()
	require.NoError(t, err)
	assert.Equal(t, 6, sphere.Len())

	_, err = jobs[2].Build()
	assert.Error(t, err)
}

func TestStartQueueHoldsMoreThanDefaultSize(t *testing.T) {
	gate := make(chan struct{})
	n := loadQueueSize*2 + 3
	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("asset-%d", i)
		jobs = append(jobs, Job{Name: name, Build: func() (*pointcloud.Cloud, error) {
			<-gate
			return cloudOf(name, 1), nil
		}})
	}

	q, err := StartQueue(loadQueueSize, jobs)
	require.NoError(t, err)
	defer q.Close()
	close(gate)

	for i := 0; i < n; i++ {
		r := recv(t, q)
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("asset-%d", i), r.Name)
	}
}

func TestLoadQueueRecoversPanickingJob(t *testing.T) {
	q := NewLoadQueue(2)
	defer q.Close()

	require.True(t, q.Enqueue(Job{Name: "bad.ply", Build: func() (*pointcloud.Cloud, error) {
		var s []int
		_ = s[3]
		return nil, nil
	}}))
	require.True(t, q.Enqueue(Job{Name: "good", Build: func() (*pointcloud.Cloud, error) { return cloudOf("good", 1), nil }}))

	r := recv(t, q)
	assert.Error(t, r.Err)
	assert.Nil(t, r.Cloud)
	assert.Contains(t, r.Err.Error(), "bad.ply")

	r = recv(t, q)
	require.NoError(t, r.Err)
	assert.Equal(t, "good", r.Cloud.Name)
}
