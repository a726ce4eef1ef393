package audio

// Capture format shared by every backend. 16 kHz mono matches what the
// whisper family of models expects, so no resampling happens downstream.
const (
	SampleRate = 16000
	Channels   = 1
	BlockSize  = 1024
)

// DataCallback receives one block of little-endian 16-bit PCM from the
// capture backend. Invoked on the audio subsystem's own thread; it must
// not block.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

func DefaultConfig() CaptureConfig {
	return CaptureConfig{SampleRate: SampleRate, Channels: Channels}
}

// DeviceInfo describes one input-capable device. Channels and SampleRate
// report the format a capture session will open on it.
type DeviceInfo struct {
	Index      int
	ID         string // opaque platform-specific identifier
	Name       string
	Channels   uint32
	SampleRate uint32
}

type Context interface {
	// Devices enumerates input-capable devices. Pure query, no side effects.
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// DeviceByIndex resolves an enumeration index to a device, or nil (system
// default) when the index is out of range or negative.
func DeviceByIndex(ctx Context, index int) *DeviceInfo {
	if index < 0 {
		return nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil
	}
	for i := range devices {
		if devices[i].Index == index {
			return &devices[i]
		}
	}
	return nil
}
