// Package audioio stores processor traces as PCM audio so they can be
// inspected and listened to in any audio editor. Each trace becomes one
// channel, scaled to full scale, at the capture frame rate.
package audioio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
)

var IntMaxSignedValue = map[int]int{
	8:  127,
	16: 32767,
	24: 8388607,
	32: 2147483647,
}

type FileType int

const (
	TypeInvalid FileType = iota - 1
	_
	TypeAIFF
	TypeWAVE
)

type Reader interface {
	Open(bufferLength int) error
	Close() error
	ReadNext() (numSamples, numFrames int, err error)
	ExtractChannel(channel, numFrames int) ([]int, error)
	GetBitDepth() int
	GetSampleRate() int
	GetNumChans() int
}

type Writer interface {
	Create(bufferLength int) error
	Close() error
	WriteNext() error
	InterleaveChannel(channel int, data []int) error
	ZeroWriteBuffer()
}

type AudioFile struct {
	Filepath   string
	NumChans   int
	BitDepth   int
	SampleRate int
}

// returnFileTypeFromExtension maps .aif/.aiff and .wav/.wave, the file does
// not have to exist
func returnFileTypeFromExtension(filePath string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".aiff", ".aif":
		return TypeAIFF, nil
	case ".wave", ".wav":
		return TypeWAVE, nil
	}

	return TypeInvalid, fmt.Errorf("invalid file type")
}

// returnFileType reads the magic bytes of an existing file.
func returnFileType(filePath string) (FileType, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return TypeInvalid, err
	}
	defer file.Close()

	headerBytes := make([]byte, 12)
	if _, err := file.Read(headerBytes); err != nil {
		return TypeInvalid, err
	}

	magic := append(append([]byte{}, headerBytes[:4]...), headerBytes[8:]...)

	if bytes.Equal(magic, []byte("FORMAIFF")) {
		return TypeAIFF, nil
	} else if bytes.Equal(magic, []byte("RIFFWAVE")) {
		return TypeWAVE, nil
	}

	return TypeInvalid, fmt.Errorf("invalid file type")
}

func NewAudioReader(filePath string) (Reader, error) {
	fileType, err := returnFileType(filePath)
	if err != nil {
		return nil, err
	}

	audioFile := AudioFile{Filepath: filePath}

	if fileType == TypeAIFF {
		return &AiffReader{AudioFile: audioFile}, nil
	}
	return &WaveReader{AudioFile: audioFile}, nil
}

func NewAudioWriter(audioFile AudioFile) (Writer, error) {
	fileType, err := returnFileTypeFromExtension(audioFile.Filepath)
	if err != nil {
		return nil, err
	}

	if IntMaxSignedValue[audioFile.BitDepth] == 0 {
		return nil, fmt.Errorf("unsupported bit depth %d", audioFile.BitDepth)
	}

	if fileType == TypeAIFF {
		return &AiffWriter{AudioFile: audioFile}, nil
	}
	return &WaveWriter{AudioFile: audioFile}, nil
}

func newIntBuffer(numChans, sampleRate, bitDepth, bufferLength int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChans,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, bufferLength*numChans),
		SourceBitDepth: bitDepth,
	}
}

// clip limits every sample to the signed range of the bit depth.
func clip(buffer *audio.IntBuffer, maxSampleValue int) {
	for i, v := range buffer.Data {
		if v > maxSampleValue {
			buffer.Data[i] = maxSampleValue
		} else if v < -maxSampleValue {
			buffer.Data[i] = -maxSampleValue
		}
	}
}

func interleave(buffer *audio.IntBuffer, numChans, channel int, data []int) error {
	if len(data)*numChans != len(buffer.Data) {
		return fmt.Errorf("data to interleave will not fit exactly into write buffer")
	}

	for frameNumber, v := range data {
		buffer.Data[frameNumber*numChans+channel] = v
	}

	return nil
}

func extract(buffer *audio.IntBuffer, numChans, channel, numFrames int) ([]int, error) {
	if channel < 0 || channel > numChans-1 {
		return nil, fmt.Errorf("requested channel (%d) is out of bounds 0-%d", channel, numChans-1)
	}

	data := make([]int, numFrames)
	for x := range data {
		data[x] = buffer.Data[x*numChans+channel]
	}

	return data, nil
}
