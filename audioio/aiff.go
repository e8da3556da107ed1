package audioio

import (
	"errors"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

type AiffReader struct {
	AudioFile
	ReadBuffer *audio.IntBuffer
	decoder    *aiff.Decoder
	fileIo     *os.File
}

type AiffWriter struct {
	AudioFile
	WriteBuffer    *audio.IntBuffer
	encoder        *aiff.Encoder
	maxSampleValue int
	fileIo         *os.File
}

func (ar *AiffReader) GetBitDepth() int {
	return ar.BitDepth
}

func (ar *AiffReader) GetSampleRate() int {
	return ar.SampleRate
}

func (ar *AiffReader) GetNumChans() int {
	return ar.NumChans
}

// Open reads the header; bufferLength is how many frames ReadNext reads at a
// time.
func (ar *AiffReader) Open(bufferLength int) error {
	var err error

	ar.fileIo, err = os.Open(ar.Filepath)
	if err != nil {
		return err
	}

	ar.decoder = aiff.NewDecoder(ar.fileIo)
	ar.decoder.ReadInfo()

	if ar.decoder.NumChans == 0 || ar.decoder.SampleRate == 0 || ar.decoder.BitDepth == 0 {
		ar.fileIo.Close()
		return errors.New("aiff header is incomplete")
	}

	ar.NumChans = int(ar.decoder.NumChans)
	ar.BitDepth = int(ar.decoder.BitDepth)
	ar.SampleRate = int(ar.decoder.SampleRate)
	ar.ReadBuffer = newIntBuffer(ar.NumChans, ar.SampleRate, ar.BitDepth, bufferLength)

	return nil
}

func (ar *AiffReader) ExtractChannel(channel, numFrames int) ([]int, error) {
	return extract(ar.ReadBuffer, ar.NumChans, channel, numFrames)
}

func (ar *AiffReader) Close() error {
	return ar.fileIo.Close()
}

// ReadNext fills ReadBuffer; numSamples counts across channels, numFrames
// per channel.
func (ar *AiffReader) ReadNext() (numSamples, numFrames int, err error) {
	numSamples, err = ar.decoder.PCMBuffer(ar.ReadBuffer)
	numFrames = numSamples / ar.NumChans
	return
}

func (aw *AiffWriter) Create(bufferLength int) error {
	var err error

	aw.fileIo, err = os.Create(aw.Filepath)
	if err != nil {
		return err
	}

	aw.encoder = aiff.NewEncoder(aw.fileIo, aw.SampleRate, aw.BitDepth, aw.NumChans)
	aw.WriteBuffer = newIntBuffer(aw.NumChans, aw.SampleRate, aw.BitDepth, bufferLength)
	aw.maxSampleValue = IntMaxSignedValue[aw.BitDepth]

	return nil
}

func (aw *AiffWriter) Close() error {
	if err := aw.encoder.Close(); err != nil {
		aw.fileIo.Close()
		return err
	}
	return aw.fileIo.Close()
}

func (aw *AiffWriter) ZeroWriteBuffer() {
	for i := range aw.WriteBuffer.Data {
		aw.WriteBuffer.Data[i] = 0
	}
}

func (aw *AiffWriter) WriteNext() error {
	clip(aw.WriteBuffer, aw.maxSampleValue)
	return aw.encoder.Write(aw.WriteBuffer)
}

func (aw *AiffWriter) InterleaveChannel(channel int, data []int) error {
	return interleave(aw.WriteBuffer, aw.NumChans, channel, data)
}
