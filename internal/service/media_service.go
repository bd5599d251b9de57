package service

import (
	"context"
	"learn_with_me_client/internal/config"
	"learn_with_me_client/internal/util"
	"learn_with_me_client/pkg/logger"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type ImageKind string

const (
	ImageCourse  ImageKind = "course"
	ImageProfile ImageKind = "profile"
)

// Presigner 生成对象的临时访问地址，*minio.Client 实现
type Presigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MediaService 把课程/头像/视频的 url 或对象 key 解析为可访问地址
type MediaService struct {
	mu        sync.RWMutex
	cfg       config.StorageConfig
	presigner Presigner

	Probe util.ProbeFunc
}

func NewMediaService(cfg *config.StorageConfig) (*MediaService, error) {
	s := &MediaService{}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMediaServiceWithPresigner 测试或自定义存储后端使用
func NewMediaServiceWithPresigner(cfg config.StorageConfig, presigner Presigner) *MediaService {
	return &MediaService{cfg: cfg, presigner: presigner}
}

// Reload 配置热更新时替换存储配置
func (s *MediaService) Reload(cfg *config.StorageConfig) error {
	var presigner Presigner
	if cfg.Presign && cfg.MinioEndpoint != "" {
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
			Secure: cfg.MinioSecure,
		})
		if err != nil {
			return err
		}
		presigner = client
	}

	s.mu.Lock()
	s.cfg = *cfg
	s.presigner = presigner
	s.mu.Unlock()

	logger.Log.Info("Media storage configured",
		zap.String("baseUrl", cfg.PublicBaseURL),
		zap.String("bucket", cfg.MinioBucket),
		zap.Bool("presign", presigner != nil),
	)
	return nil
}

func (s *MediaService) snapshot() (config.StorageConfig, Presigner) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.presigner
}

func (s *MediaService) ResolveImageURL(ctx context.Context, imageURL, imageKey string, kind ImageKind) string {
	folder := util.FolderCourseImages
	if kind == ImageProfile {
		folder = util.FolderProfileImages
	}
	return s.resolve(ctx, imageURL, imageKey, folder)
}

func (s *MediaService) ResolveVideoURL(ctx context.Context, videoURL, videoKey string) string {
	return s.resolve(ctx, videoURL, videoKey, util.FolderCourseVideos)
}

// resolve 优先级：绝对地址 > 对象 key > 相对路径；都没有时返回空串
func (s *MediaService) resolve(ctx context.Context, rawURL, key, folder string) string {
	cfg, presigner := s.snapshot()

	if strings.HasPrefix(rawURL, "http") {
		return rewriteLocalhost(rawURL, cfg.BackendHost)
	}

	if key != "" {
		if presigner != nil {
			expires := time.Duration(cfg.PresignMinute) * time.Minute
			if expires <= 0 {
				expires = time.Hour
			}
			u, err := presigner.PresignedGetObject(ctx, cfg.MinioBucket, folder+"/"+key, expires, nil)
			if err == nil {
				return u.String()
			}
			logger.Log.Warn("Presign failed, falling back to public url", zap.String("key", key), zap.Error(err))
		}
		return objectURL(cfg, folder, key)
	}

	if rawURL != "" {
		return objectURL(cfg, folder, rawURL)
	}
	return ""
}

func objectURL(cfg config.StorageConfig, folder, name string) string {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	return base + "/" + cfg.MinioBucket + "/" + folder + "/" + strings.TrimLeft(name, "/")
}

// rewriteLocalhost 后端返回 localhost 地址时替换为设备可访问的主机
func rewriteLocalhost(rawURL, backendHost string) string {
	if backendHost == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() != "localhost" {
		return rawURL
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(backendHost, port)
	} else {
		u.Host = backendHost
	}
	return u.String()
}

// ProbeDurationSeconds 读取视频时长（秒）
func (s *MediaService) ProbeDurationSeconds(source string) (float64, error) {
	if source == "" {
		return 0, util.ErrDurationUnknown
	}
	info, err := util.GetVideoInfo(source, s.Probe)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
