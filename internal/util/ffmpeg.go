package util

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoInfo 存储视频信息
type VideoInfo struct {
	Duration float64 `json:"duration"` // 视频时长（秒）
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
}

// ProbeFunc 便于测试替换
type ProbeFunc func(fileName string, kwargs ...ffmpeg.KwArgs) (string, error)

// GetVideoInfo 使用ffmpeg-go的Probe读取视频元数据，source 可以是本地路径或 URL
func GetVideoInfo(source string, probe ProbeFunc) (*VideoInfo, error) {
	if probe == nil {
		probe = ffmpeg.Probe
	}

	jsonOutput, err := probe(source)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	return ParseProbeOutput(jsonOutput)
}

// ParseProbeOutput 解析 ffprobe 的 JSON 输出
func ParseProbeOutput(jsonOutput string) (*VideoInfo, error) {
	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			Duration  string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}

	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}

	info := &VideoInfo{Format: "unknown"}
	if result.Format.Format != "" {
		info.Format = result.Format.Format
	}

	var streamDuration string
	for _, stream := range result.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			streamDuration = stream.Duration
			break
		}
	}

	// 优先 format.duration，没有时退回视频流时长
	for _, raw := range []string{result.Format.Duration, streamDuration} {
		if raw == "" {
			continue
		}
		if d, err := strconv.ParseFloat(raw, 64); err == nil && d > 0 {
			info.Duration = d
			break
		}
	}
	if info.Duration <= 0 {
		return info, ErrDurationUnknown
	}
	return info, nil
}
