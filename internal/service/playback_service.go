package service

import (
	"context"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/util"
	"learn_with_me_client/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// VideoSource 播放地址解析与时长探测，*MediaService 实现
type VideoSource interface {
	ResolveVideoURL(ctx context.Context, videoURL, videoKey string) string
	ProbeDurationSeconds(source string) (float64, error)
}

// ProgressReporter 播放会话的上报出口
type ProgressReporter interface {
	UpdateVideoProgress(ctx context.Context, courseID, videoID string, watchedSeconds float64, completed bool) (*model.VideoProgress, error)
}

type OpenPlaybackRequest struct {
	CourseID        string  `json:"courseId" binding:"required"`
	VideoID         string  `json:"videoId" binding:"required"`
	DurationSeconds float64 `json:"durationSeconds"`
	VideoURL        string  `json:"videoUrl"`
}

// PlaybackState 会话快照
type PlaybackState struct {
	ID              string  `json:"id"`
	CourseID        string  `json:"courseId"`
	VideoID         string  `json:"videoId"`
	VideoURL        string  `json:"videoUrl,omitempty"`
	Position        float64 `json:"position"`
	DurationSeconds float64 `json:"durationSeconds"`
	ResumeFrom      float64 `json:"resumeFrom"`
	Paused          bool    `json:"paused"`
	Ended           bool    `json:"ended"`
	Closed          bool    `json:"closed"`
	LastReported    float64 `json:"lastReported"`
}

// PlaybackService 管理播放会话，每个会话按固定间隔上报观看进度
type PlaybackService struct {
	Progress  *ProgressService
	Reporter  ProgressReporter
	Videos    VideoSource
	Interval  time.Duration
	Threshold float64

	mu       sync.Mutex
	sessions map[string]*PlaybackSession
}

func NewPlaybackService(progress *ProgressService, videos VideoSource, interval time.Duration, threshold float64) *PlaybackService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompletionThreshold
	}
	return &PlaybackService{
		Progress:  progress,
		Reporter:  progress,
		Videos:    videos,
		Interval:  interval,
		Threshold: threshold,
		sessions:  make(map[string]*PlaybackSession),
	}
}

// Open 新建播放会话，断点位置取自当前进度记录
func (s *PlaybackService) Open(ctx context.Context, req OpenPlaybackRequest) (*PlaybackSession, error) {
	if req.CourseID == "" {
		return nil, api.NewValidationError("OpenPlayback", util.ErrCourseIDRequired.Error())
	}
	if req.VideoID == "" {
		return nil, api.NewValidationError("OpenPlayback", util.ErrVideoIDRequired.Error())
	}

	var resumeFrom float64
	progress, details := s.Progress.Store.ProgressView()
	if progress != nil && progress.CourseID == req.CourseID {
		if vp, ok := progress.FindVideo(req.VideoID); ok {
			resumeFrom = vp.WatchedSeconds
		}
	}

	videoURL := req.VideoURL
	duration := req.DurationSeconds
	if details != nil && details.ID == req.CourseID {
		if video, ok := details.FindVideo(req.VideoID); ok {
			if duration <= 0 {
				duration = video.DurationSeconds()
			}
			if videoURL == "" && s.Videos != nil {
				videoURL = s.Videos.ResolveVideoURL(ctx, video.URL, video.Key)
			}
		}
	}
	if duration <= 0 && videoURL != "" && s.Videos != nil {
		probed, err := s.Videos.ProbeDurationSeconds(videoURL)
		if err != nil {
			logger.Log.Debug("Video duration probe failed", zap.String("url", videoURL), zap.Error(err))
		} else {
			duration = probed
		}
	}

	session := &PlaybackSession{
		id:         model.GenerateUUID(),
		courseID:   req.CourseID,
		videoID:    req.VideoID,
		videoURL:   videoURL,
		duration:   duration,
		resumeFrom: resumeFrom,
		position:   resumeFrom,
		threshold:  s.Threshold,
		reporter:   s.Reporter,
		ctx:        context.WithoutCancel(ctx),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	if s.Interval > 0 {
		go session.run(s.Interval)
	} else {
		close(session.done)
	}

	logger.Log.Info("Playback session opened",
		zap.String("session", session.id),
		zap.String("courseId", req.CourseID),
		zap.String("videoId", req.VideoID),
		zap.Float64("duration", duration),
		zap.Float64("resumeFrom", resumeFrom),
	)
	return session, nil
}

func (s *PlaybackService) Get(id string) (*PlaybackSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// Close 结束会话并做最后一次上报
func (s *PlaybackService) Close(id string) (PlaybackState, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return PlaybackState{}, util.ErrSessionNotFound
	}
	session.Close()
	return session.State(), nil
}

// CloseAll 服务退出时调用
func (s *PlaybackService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*PlaybackSession)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

type PlaybackSession struct {
	id         string
	courseID   string
	videoID    string
	videoURL   string
	resumeFrom float64
	threshold  float64
	reporter   ProgressReporter
	ctx        context.Context

	mu           sync.Mutex
	duration     float64
	position     float64
	lastReported float64
	paused       bool
	ended        bool
	closed       bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (p *PlaybackSession) ID() string { return p.id }

func (p *PlaybackSession) run(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.Tick()
		}
	}
}

// SetPosition 播放器回报的当前位置（秒）
func (p *PlaybackSession) SetPosition(seconds float64) error {
	if seconds < 0 {
		return api.NewValidationError("SetPosition", util.ErrNegativeSeconds.Error())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return util.ErrSessionClosed
	}
	if p.duration > 0 && seconds > p.duration {
		seconds = p.duration
	}
	p.position = seconds
	return nil
}

func (p *PlaybackSession) Pause() error {
	return p.setPaused(true)
}

func (p *PlaybackSession) Resume() error {
	return p.setPaused(false)
}

func (p *PlaybackSession) setPaused(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return util.ErrSessionClosed
	}
	p.paused = paused
	if !paused {
		p.ended = false
	}
	return nil
}

// Tick 播放中且位置大于 0 时上报一次，返回是否发起了上报
func (p *PlaybackSession) Tick() bool {
	p.mu.Lock()
	if p.closed || p.paused || p.ended || p.position <= 0 {
		p.mu.Unlock()
		return false
	}
	position := p.position
	completed := ReachedThreshold(position, p.duration, p.threshold)
	p.lastReported = position
	p.mu.Unlock()

	p.report(position, completed)
	return true
}

// End 播放结束，按完整时长上报已完成
func (p *PlaybackSession) End() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return util.ErrSessionClosed
	}
	watched := p.duration
	if watched <= 0 {
		watched = p.position
	}
	p.position = watched
	p.ended = true
	p.lastReported = watched
	p.mu.Unlock()

	p.report(watched, true)
	return nil
}

// Close 停止定时上报；位置大于 0 时补报一次
func (p *PlaybackSession) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	position := p.position
	ended := p.ended
	completed := ReachedThreshold(position, p.duration, p.threshold)
	if position > 0 && !ended {
		p.lastReported = position
	}
	p.mu.Unlock()

	if position > 0 && !ended {
		p.report(position, completed)
	}
	logger.Log.Info("Playback session closed", zap.String("session", p.id), zap.Float64("position", position))
}

func (p *PlaybackSession) report(position float64, completed bool) {
	if p.reporter == nil {
		return
	}
	if _, err := p.reporter.UpdateVideoProgress(p.ctx, p.courseID, p.videoID, position, completed); err != nil {
		logger.Log.Debug("Playback report dropped",
			zap.String("session", p.id),
			zap.Float64("position", position),
			zap.Error(err),
		)
	}
}

func (p *PlaybackSession) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlaybackState{
		ID:              p.id,
		CourseID:        p.courseID,
		VideoID:         p.videoID,
		VideoURL:        p.videoURL,
		Position:        p.position,
		DurationSeconds: p.duration,
		ResumeFrom:      p.resumeFrom,
		Paused:          p.paused,
		Ended:           p.ended,
		Closed:          p.closed,
		LastReported:    p.lastReported,
	}
}
