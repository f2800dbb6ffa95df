package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DennitchGlitchie/StreamingPi/internal/config"
	"github.com/DennitchGlitchie/StreamingPi/internal/media"
)

const binary = "ffmpeg"

// ErrFallbackUnavailable means the visuals-only pipeline cannot exist
// because visuals were disabled on the command line.
var ErrFallbackUnavailable = errors.New("fallback pipeline needs visuals, but visuals are disabled")

// Fixed encoding profile. Tuned for a Raspberry Pi pushing 720p over
// household upstream; not configurable on purpose.
const (
	videoSize        = "1280x720"
	frameRate        = "30"
	threadQueueSize  = "512"
	videoMaxRate     = "1500k"
	videoBufferSize  = "3000k"
	keyframeInterval = "60" // one keyframe per two seconds at 30 fps
	quality          = "28"
	h264Profile      = "high"
	h264Level        = "4.0"
	audioBitrate     = "128k"
	audioSampleRate  = "44100"
	audioChannels    = "2"
)

// Filtergraphs. Input indices are fixed by the argument order in the
// builders below: primary has the webcam at 0 and visuals at 1, the
// fallback has visuals at 0.
const (
	overlayFilter  = "[1:v]scale=1280:720,format=yuv420p[vis];[0:v][vis]blend=all_mode=overlay:all_opacity=0.5[outv]"
	fallbackFilter = "[0:v]scale=1280:720,format=yuv420p[outv]"
)

// Command is one fully composed encoder invocation, ready to launch.
type Command struct {
	Path string
	Args []string
}

// String renders the invocation for logs and dry runs. Arguments with
// spaces are quoted so the line can be pasted back into a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, arg := range c.Args {
		if strings.ContainsRune(arg, ' ') {
			arg = "'" + arg + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// BuildPrimary composes the webcam pipeline. Input order decides the
// stream indices: webcam 0, then visuals when enabled, then the audio
// playlist. The audio map below depends on that ordering.
func BuildPrimary(cfg *config.Config, visuals, playlist string) (Command, error) {
	if cfg.VisualsEnabled && visuals == "" {
		return Command{}, &media.VisualsError{Dir: cfg.Media.VisualsDir}
	}

	args := []string{
		"-f", "v4l2",
		"-input_format", "mjpeg",
		"-video_size", videoSize,
		"-framerate", frameRate,
		"-thread_queue_size", threadQueueSize,
		"-i", cfg.Stream.WebcamDevice,
	}

	if cfg.VisualsEnabled {
		args = append(args, "-stream_loop", "-1", "-i", visuals)
	}
	if cfg.AudioEnabled {
		args = append(args, "-stream_loop", "-1", "-f", "concat", "-safe", "0", "-i", playlist)
	}

	if cfg.VisualsEnabled {
		args = append(args, "-filter_complex", overlayFilter, "-map", "[outv]")
	} else {
		args = append(args, "-map", "0:v")
	}
	if cfg.AudioEnabled {
		audioInput := 1
		if cfg.VisualsEnabled {
			audioInput = 2
		}
		args = append(args, "-map", fmt.Sprintf("%d:a:0", audioInput))
	}

	args = append(args, videoEncodeArgs()...)
	if cfg.AudioEnabled {
		args = append(args, audioEncodeArgs()...)
	}
	args = append(args, outputArgs(cfg)...)

	return Command{Path: binary, Args: args}, nil
}

// BuildFallback composes the visuals-only pipeline used while the webcam
// is unusable. The looping asset is input 0 and is read at native rate so
// the loop does not outrun the ingest.
func BuildFallback(cfg *config.Config, visuals, playlist string) (Command, error) {
	if !cfg.VisualsEnabled {
		return Command{}, ErrFallbackUnavailable
	}
	if visuals == "" {
		return Command{}, &media.VisualsError{Dir: cfg.Media.VisualsDir}
	}

	args := []string{
		"-re",
		"-stream_loop", "-1",
		"-i", visuals,
	}
	if cfg.AudioEnabled {
		args = append(args, "-stream_loop", "-1", "-f", "concat", "-safe", "0", "-i", playlist)
	}

	args = append(args, "-filter_complex", fallbackFilter, "-map", "[outv]")
	if cfg.AudioEnabled {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args, videoEncodeArgs()...)
	if cfg.AudioEnabled {
		args = append(args, audioEncodeArgs()...)
	}
	args = append(args, outputArgs(cfg)...)

	return Command{Path: binary, Args: args}, nil
}

func videoEncodeArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-maxrate", videoMaxRate,
		"-bufsize", videoBufferSize,
		"-g", keyframeInterval,
		"-crf", quality,
		"-profile:v", h264Profile,
		"-level", h264Level,
	}
}

func audioEncodeArgs() []string {
	return []string{
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
		"-ac", audioChannels,
	}
}

func outputArgs(cfg *config.Config) []string {
	return []string{
		"-f", "flv",
		"-movflags", "+faststart",
		cfg.PublishURL(),
	}
}
