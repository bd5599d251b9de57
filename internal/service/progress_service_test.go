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

func newProgressFixture() (*ProgressService, *fakeProgressAPI, *store.CourseStore) {
	fake := newFakeProgressAPI("u1")
	st := store.NewCourseStore()
	return NewProgressService(fake, st, staticUser{id: "u1"}, 0.9), fake, st
}

func videos(n int) []model.CourseVideo {
	out := make([]model.CourseVideo, n)
	for i := range out {
		out[i] = model.CourseVideo{ID: string(rune('a' + i)), Duration: 10}
	}
	return out
}

func TestEnroll_TwiceCreatesSingleRecord(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	ctx := context.Background()

	first, err := svc.Enroll(ctx, "c1")
	require.NoError(t, err)
	second, err := svc.Enroll(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.createCalls)
	assert.Len(t, fake.records, 1)
	assert.Equal(t, first.CourseID, second.CourseID)
	assert.Equal(t, first.UserID, second.UserID)
	assert.False(t, first.AlreadyEnrolled)
	assert.True(t, second.AlreadyEnrolled)
	assert.Equal(t, model.ExistingEnrollmentID, second.ID)
}

func TestEnroll_ConcurrentCallsCollapse(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	release := make(chan struct{})
	fake.createHook = func() { <-release }

	var wg sync.WaitGroup
	results := make([]*model.CourseProgress, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Enroll(context.Background(), "c1")
		}(i)
	}

	// 第二个调用进入 singleflight 等待后再放行
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, fake.records, 1)
	for _, r := range results {
		assert.Equal(t, "c1", r.CourseID)
		assert.Equal(t, "u1", r.UserID)
	}
}

func TestEnroll_ConflictReturnsPlaceholderAndReconciles(t *testing.T) {
	svc, fake, st := newProgressFixture()
	fake.records["c1"] = &model.CourseProgress{ID: "p1", UserID: "u1", CourseID: "c1"}
	fake.isEnrolledErr = errors.New("lookup failed")

	got, err := svc.Enroll(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, got.AlreadyEnrolled)
	assert.Equal(t, "c1", got.CourseID)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.Completed)

	require.NotNil(t, st.CurrentProgress())
	assert.Equal(t, "p1", st.CurrentProgress().ID, "server record replaces the placeholder")
}

func TestEnroll_SharedFlightSurvivesCallerCancellation(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	release := make(chan struct{})
	fake.createHook = func() { <-release }

	first, cancelFirst := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]*model.CourseProgress, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Enroll(first, "c1")
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.Enroll(context.Background(), "c1")
	}()
	time.Sleep(20 * time.Millisecond)

	// 第一个调用方断开后再放行共享请求
	cancelFirst()
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, fake.records, 1)
	assert.Equal(t, "c1", results[1].CourseID)
}

func TestEnroll_AlreadyEnrolledWhenProgressUnavailable(t *testing.T) {
	svc, fake, st := newProgressFixture()
	fake.records["c1"] = &model.CourseProgress{ID: "p1", UserID: "u1", CourseID: "c1"}
	fake.getErr = &api.Error{Kind: api.KindTransport}

	got, err := svc.Enroll(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, got.AlreadyEnrolled)
	assert.Empty(t, st.Error(), "enrollment succeeded, reconcile failure stays out of the store")

	current := st.CurrentProgress()
	require.NotNil(t, current)
	assert.Equal(t, "c1", current.CourseID)
	assert.True(t, current.AlreadyEnrolled)
	assert.Equal(t, 0, fake.createCalls)
}

func TestEnroll_ReconcileFailureKeepsLoadedProgress(t *testing.T) {
	svc, fake, st := newProgressFixture()
	ctx := context.Background()
	fake.records["c1"] = &model.CourseProgress{ID: "p1", UserID: "u1", CourseID: "c1"}
	_, err := svc.FetchProgress(ctx, "c1")
	require.NoError(t, err)

	fake.getErr = &api.Error{Kind: api.KindTransport}
	_, err = svc.Enroll(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "p1", st.CurrentProgress().ID)
	assert.Empty(t, st.Error())
}

func TestEnroll_FailureSetsMessage(t *testing.T) {
	svc, fake, st := newProgressFixture()
	fake.createErr = &api.Error{Kind: api.KindTransport}

	_, err := svc.Enroll(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, util.MsgNetworkIssue, st.Error())

	fake.createErr = &api.Error{Kind: api.KindUnknown}
	_, err = svc.Enroll(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, util.MsgEnrollFailed, st.Error())
}

func TestEnroll_RequiresSession(t *testing.T) {
	svc, fake, st := newProgressFixture()
	svc.Users = staticUser{err: util.ErrNotAuthenticated}

	_, err := svc.Enroll(context.Background(), "c1")
	assert.True(t, api.IsKind(err, api.KindUnauthorized))
	assert.Equal(t, util.MsgLoginRequired, st.Error())
	assert.Equal(t, 0, fake.createCalls)
}

func TestCheckEnrollmentStatus(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	ctx := context.Background()

	assert.False(t, svc.CheckEnrollmentStatus(ctx, ""))
	assert.False(t, svc.CheckEnrollmentStatus(ctx, "c1"))

	fake.isEnrolledErr = &api.Error{Kind: api.KindConflict}
	assert.True(t, svc.CheckEnrollmentStatus(ctx, "c1"))

	fake.isEnrolledErr = &api.Error{Kind: api.KindTransport}
	assert.False(t, svc.CheckEnrollmentStatus(ctx, "c1"))

	svc.Users = staticUser{err: util.ErrNotAuthenticated}
	fake.isEnrolledErr = nil
	fake.records["c1"] = &model.CourseProgress{CourseID: "c1"}
	assert.False(t, svc.CheckEnrollmentStatus(ctx, "c1"))
}

func TestFetchProgress_NotEnrolledVersusConnectivity(t *testing.T) {
	svc, fake, st := newProgressFixture()
	ctx := context.Background()

	progress, err := svc.FetchProgress(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, progress)
	assert.Nil(t, st.CurrentProgress())
	assert.Empty(t, st.Error())

	fake.getErr = &api.Error{Kind: api.KindTransport}
	progress, err = svc.FetchProgress(ctx, "c1")
	require.Error(t, err)
	assert.Nil(t, progress)
	assert.Nil(t, st.CurrentProgress())
	assert.Equal(t, util.MsgNetworkIssue, st.Error())
}

func TestFetchProgress_EmptyCourseIDSkipsNetwork(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	fake.getErr = errors.New("should not be called")

	_, err := svc.FetchProgress(context.Background(), "")
	assert.True(t, api.IsKind(err, api.KindValidation))
}

func TestCalculateOverallProgress_NoProgressIsZero(t *testing.T) {
	svc, _, st := newProgressFixture()
	st.SetCourseDetails(&model.Course{ID: "c1", CourseVideos: videos(2)})
	assert.Equal(t, 0, svc.CalculateOverallProgress("c1"))

	// 进度属于其它课程
	seq := st.NextProgressSeq("c2")
	st.ApplyProgress("c2", seq, &model.CourseProgress{CourseID: "c2", Completed: true})
	assert.Equal(t, 0, svc.CalculateOverallProgress("c1"))
}

func TestOverallProgress_ZeroVideos(t *testing.T) {
	details := &model.Course{ID: "c1"}
	assert.Equal(t, 100, OverallProgress(&model.CourseProgress{CourseID: "c1", Completed: true}, details, "c1"))
	assert.Equal(t, 0, OverallProgress(&model.CourseProgress{CourseID: "c1"}, details, "c1"))
}

func TestOverallProgress_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		n, k, want int
	}{
		{4, 1, 25},
		{3, 2, 67},
		{3, 1, 33},
		{8, 1, 13},
		{2, 2, 100},
	}
	for _, tc := range cases {
		vids := videos(tc.n)
		progress := &model.CourseProgress{CourseID: "c1"}
		for i := 0; i < tc.k; i++ {
			progress.VideosProgress = append(progress.VideosProgress, model.VideoProgress{VideoID: vids[i].ID, Completed: true})
		}
		got := OverallProgress(progress, &model.Course{ID: "c1", CourseVideos: vids}, "c1")
		assert.Equal(t, tc.want, got, "N=%d k=%d", tc.n, tc.k)
	}
}

func TestOverallProgress_ClampedAndDetailsMismatch(t *testing.T) {
	progress := &model.CourseProgress{CourseID: "c1", VideosProgress: []model.VideoProgress{
		{VideoID: "a", Completed: true},
		{VideoID: "removed", Completed: true},
	}}
	assert.Equal(t, 100, OverallProgress(progress, &model.Course{ID: "c1", CourseVideos: videos(1)}, "c1"))
	assert.Equal(t, 0, OverallProgress(progress, &model.Course{ID: "other", CourseVideos: videos(1)}, "c1"))
	assert.Equal(t, 0, OverallProgress(progress, nil, "c1"))
}

func TestUpdateVideoProgress_DerivesCompletionAtThreshold(t *testing.T) {
	svc, fake, st := newProgressFixture()
	ctx := context.Background()
	st.SetCourseDetails(&model.Course{ID: "c1", CourseVideos: []model.CourseVideo{{ID: "v1", Duration: 10}}})
	_, err := svc.Enroll(ctx, "c1")
	require.NoError(t, err)

	_, err = svc.UpdateVideoProgress(ctx, "c1", "v1", 300, false)
	require.NoError(t, err)
	assert.False(t, fake.lastUpdate().Completed)

	// 600 秒的视频看到 540 秒即 90%
	_, err = svc.UpdateVideoProgress(ctx, "c1", "v1", 540, false)
	require.NoError(t, err)
	assert.True(t, fake.lastUpdate().Completed)

	vp, ok := st.CurrentProgress().FindVideo("v1")
	require.True(t, ok)
	assert.True(t, vp.Completed)
	assert.Equal(t, 100, *st.CourseDetails().UserProgress)
}

func TestUpdateVideoProgress_NeverUncompletes(t *testing.T) {
	svc, fake, st := newProgressFixture()
	ctx := context.Background()
	st.SetCourseDetails(&model.Course{ID: "c1", CourseVideos: []model.CourseVideo{{ID: "v1", Duration: 10}}})
	_, err := svc.Enroll(ctx, "c1")
	require.NoError(t, err)

	_, err = svc.UpdateVideoProgress(ctx, "c1", "v1", 600, true)
	require.NoError(t, err)

	_, err = svc.UpdateVideoProgress(ctx, "c1", "v1", 12, false)
	require.NoError(t, err)
	assert.True(t, fake.lastUpdate().Completed)
}

func TestUpdateVideoProgress_FailureIsSilent(t *testing.T) {
	svc, fake, st := newProgressFixture()
	fake.updateErr = &api.Error{Kind: api.KindTransport}

	_, err := svc.UpdateVideoProgress(context.Background(), "c1", "v1", 30, false)
	require.Error(t, err)
	assert.Empty(t, st.Error())
}

func TestUpdateVideoProgress_Validation(t *testing.T) {
	svc, fake, _ := newProgressFixture()
	ctx := context.Background()

	for _, tc := range []struct {
		courseID, videoID string
		seconds           float64
	}{
		{"", "v1", 1},
		{"c1", "", 1},
		{"c1", "v1", -1},
	} {
		_, err := svc.UpdateVideoProgress(ctx, tc.courseID, tc.videoID, tc.seconds, false)
		assert.True(t, api.IsKind(err, api.KindValidation))
	}
	assert.Empty(t, fake.updates)
}

func TestMarkCourseAsCompleted(t *testing.T) {
	svc, fake, st := newProgressFixture()
	ctx := context.Background()
	st.SetCourseDetails(&model.Course{ID: "c1"})

	fake.completeErr = &api.Error{Kind: api.KindTransport}
	_, err := svc.MarkCourseAsCompleted(ctx, "c1")
	require.Error(t, err)
	assert.Equal(t, util.MsgNetworkIssue, st.Error())
	assert.Nil(t, st.CurrentProgress(), "no optimistic update")

	fake.completeErr = nil
	_, err = svc.Enroll(ctx, "c1")
	require.NoError(t, err)
	progress, err := svc.MarkCourseAsCompleted(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.True(t, st.CurrentProgress().Completed)
	assert.Equal(t, 100, *st.CourseDetails().UserProgress)
	assert.Empty(t, st.Error())
}
