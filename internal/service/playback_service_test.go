package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportCall struct {
	courseID, videoID string
	seconds           float64
	completed         bool
}

type fakeReporter struct {
	mu    sync.Mutex
	calls []reportCall
	err   error
}

func (r *fakeReporter) UpdateVideoProgress(ctx context.Context, courseID, videoID string, watchedSeconds float64, completed bool) (*model.VideoProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reportCall{courseID, videoID, watchedSeconds, completed})
	if r.err != nil {
		return nil, r.err
	}
	return &model.VideoProgress{VideoID: videoID, WatchedSeconds: watchedSeconds, Completed: completed}, nil
}

func (r *fakeReporter) snapshot() []reportCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportCall(nil), r.calls...)
}

type fakeVideos struct {
	resolved string
	probed   float64
	probeErr error
	probes   []string
}

func (v *fakeVideos) ResolveVideoURL(ctx context.Context, videoURL, videoKey string) string {
	if v.resolved != "" {
		return v.resolved
	}
	return videoURL
}

func (v *fakeVideos) ProbeDurationSeconds(source string) (float64, error) {
	v.probes = append(v.probes, source)
	return v.probed, v.probeErr
}

func newPlaybackFixture(interval time.Duration) (*PlaybackService, *fakeReporter, *store.CourseStore, *fakeVideos) {
	st := store.NewCourseStore()
	progress := NewProgressService(newFakeProgressAPI("u1"), st, staticUser{id: "u1"}, 0.9)
	videos := &fakeVideos{}
	svc := NewPlaybackService(progress, videos, interval, 0.9)
	reporter := &fakeReporter{}
	svc.Reporter = reporter
	return svc, reporter, st, videos
}

func TestPlaybackOpen_Validation(t *testing.T) {
	svc, _, _, _ := newPlaybackFixture(0)

	_, err := svc.Open(context.Background(), OpenPlaybackRequest{VideoID: "v1"})
	assert.True(t, api.IsKind(err, api.KindValidation))
	_, err = svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1"})
	assert.True(t, api.IsKind(err, api.KindValidation))
}

func TestPlaybackOpen_ResumesFromRecordedPosition(t *testing.T) {
	svc, _, st, videos := newPlaybackFixture(0)
	videos.resolved = "http://cdn/course-videos/v1.mp4"
	st.SetCourseDetails(&model.Course{ID: "c1", CourseVideos: []model.CourseVideo{{ID: "v1", Key: "v1.mp4", Duration: 10}}})
	seq := st.NextProgressSeq("c1")
	st.ApplyProgress("c1", seq, &model.CourseProgress{CourseID: "c1", VideosProgress: []model.VideoProgress{
		{VideoID: "v1", WatchedSeconds: 125},
	}})

	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1"})
	require.NoError(t, err)

	state := session.State()
	assert.Equal(t, 125.0, state.ResumeFrom)
	assert.Equal(t, 125.0, state.Position)
	assert.Equal(t, 600.0, state.DurationSeconds)
	assert.Equal(t, "http://cdn/course-videos/v1.mp4", state.VideoURL)
	assert.Empty(t, videos.probes)

	got, err := svc.Get(session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestPlaybackOpen_ProbesUnknownDuration(t *testing.T) {
	svc, _, _, videos := newPlaybackFixture(0)
	videos.probed = 42.5

	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", VideoURL: "http://cdn/v1.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 42.5, session.State().DurationSeconds)
	assert.Equal(t, []string{"http://cdn/v1.mp4"}, videos.probes)

	videos.probeErr = errors.New("ffprobe missing")
	session, err = svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v2", VideoURL: "http://cdn/v2.mp4"})
	require.NoError(t, err)
	assert.Zero(t, session.State().DurationSeconds)
}

func TestPlaybackTick_SkipsWhenPausedOrAtStart(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 600})
	require.NoError(t, err)

	assert.False(t, session.Tick(), "position 0")

	require.NoError(t, session.SetPosition(60))
	require.NoError(t, session.Pause())
	assert.False(t, session.Tick())

	require.NoError(t, session.Resume())
	assert.True(t, session.Tick())

	calls := reporter.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, reportCall{"c1", "v1", 60, false}, calls[0])
	assert.Equal(t, 60.0, session.State().LastReported)
}

func TestPlaybackTick_MarksCompletedAtThreshold(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 600})
	require.NoError(t, err)

	require.NoError(t, session.SetPosition(539))
	session.Tick()
	require.NoError(t, session.SetPosition(540))
	session.Tick()

	calls := reporter.snapshot()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].completed)
	assert.True(t, calls[1].completed)
}

func TestPlaybackSetPosition_ClampsAndRejectsNegative(t *testing.T) {
	svc, _, _, _ := newPlaybackFixture(0)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 100})
	require.NoError(t, err)

	assert.True(t, api.IsKind(session.SetPosition(-1), api.KindValidation))
	require.NoError(t, session.SetPosition(250))
	assert.Equal(t, 100.0, session.State().Position)
}

func TestPlaybackEnd_ReportsFullDurationOnce(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 300})
	require.NoError(t, err)
	require.NoError(t, session.SetPosition(120))

	require.NoError(t, session.End())
	assert.False(t, session.Tick(), "ended sessions stop reporting")

	state, err := svc.Close(session.ID())
	require.NoError(t, err)
	assert.True(t, state.Closed)
	assert.True(t, state.Ended)

	calls := reporter.snapshot()
	require.Len(t, calls, 1, "close after end does not report again")
	assert.Equal(t, reportCall{"c1", "v1", 300, true}, calls[0])
}

func TestPlaybackClose_ReportsFinalPosition(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 600})
	require.NoError(t, err)
	require.NoError(t, session.SetPosition(75))

	_, err = svc.Close(session.ID())
	require.NoError(t, err)

	calls := reporter.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, 75.0, calls[0].seconds)

	assert.ErrorIs(t, session.SetPosition(80), util.ErrSessionClosed)
	assert.ErrorIs(t, session.End(), util.ErrSessionClosed)
	_, err = svc.Get(session.ID())
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.Close(session.ID())
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestPlaybackClose_ReportFailureIsIgnored(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	reporter.err = &api.Error{Kind: api.KindTransport}
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 600})
	require.NoError(t, err)
	require.NoError(t, session.SetPosition(10))

	assert.True(t, session.Tick())
	_, err = svc.Close(session.ID())
	assert.NoError(t, err)
}

func TestPlaybackCloseAll(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(0)
	for _, id := range []string{"v1", "v2"} {
		session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: id, DurationSeconds: 600})
		require.NoError(t, err)
		require.NoError(t, session.SetPosition(30))
	}

	svc.CloseAll()
	assert.Len(t, reporter.snapshot(), 2)
	assert.Empty(t, svc.sessions)
}

func TestPlaybackTicker_ReportsPeriodically(t *testing.T) {
	svc, reporter, _, _ := newPlaybackFixture(10 * time.Millisecond)
	session, err := svc.Open(context.Background(), OpenPlaybackRequest{CourseID: "c1", VideoID: "v1", DurationSeconds: 600})
	require.NoError(t, err)
	require.NoError(t, session.SetPosition(30))

	assert.Eventually(t, func() bool {
		return len(reporter.snapshot()) >= 2
	}, time.Second, 5*time.Millisecond)

	_, err = svc.Close(session.ID())
	require.NoError(t, err)
	n := len(reporter.snapshot())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(reporter.snapshot()), "no reports after close")
}
