package audioio

import (
	"errors"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type WaveReader struct {
	AudioFile
	ReadBuffer *audio.IntBuffer
	decoder    *wav.Decoder
	fileIo     *os.File
}

type WaveWriter struct {
	AudioFile
	WriteBuffer    *audio.IntBuffer
	encoder        *wav.Encoder
	maxSampleValue int
	fileIo         *os.File
}

func (wr *WaveReader) GetBitDepth() int {
	return wr.BitDepth
}

func (wr *WaveReader) GetSampleRate() int {
	return wr.SampleRate
}

func (wr *WaveReader) GetNumChans() int {
	return wr.NumChans
}

// Open reads the header; bufferLength is how many frames ReadNext reads at a
// time.
func (wr *WaveReader) Open(bufferLength int) error {
	var err error

	wr.fileIo, err = os.Open(wr.Filepath)
	if err != nil {
		return err
	}

	wr.decoder = wav.NewDecoder(wr.fileIo)
	wr.decoder.ReadInfo()

	if wr.decoder.NumChans == 0 || wr.decoder.SampleRate == 0 || wr.decoder.BitDepth == 0 {
		wr.fileIo.Close()
		return errors.New("wave header is incomplete")
	}

	wr.NumChans = int(wr.decoder.NumChans)
	wr.BitDepth = int(wr.decoder.BitDepth)
	wr.SampleRate = int(wr.decoder.SampleRate)
	wr.ReadBuffer = newIntBuffer(wr.NumChans, wr.SampleRate, wr.BitDepth, bufferLength)

	return nil
}

func (wr *WaveReader) ExtractChannel(channel, numFrames int) ([]int, error) {
	return extract(wr.ReadBuffer, wr.NumChans, channel, numFrames)
}

func (wr *WaveReader) Close() error {
	return wr.fileIo.Close()
}

// ReadNext fills ReadBuffer; numSamples counts across channels, numFrames
// per channel.
func (wr *WaveReader) ReadNext() (numSamples, numFrames int, err error) {
	numSamples, err = wr.decoder.PCMBuffer(wr.ReadBuffer)
	numFrames = numSamples / wr.NumChans
	return
}

func (ww *WaveWriter) Create(bufferLength int) error {
	var err error

	ww.fileIo, err = os.Create(ww.Filepath)
	if err != nil {
		return err
	}

	ww.encoder = wav.NewEncoder(
		ww.fileIo,
		ww.SampleRate,
		ww.BitDepth,
		ww.NumChans,
		1, // linear PCM
	)
	ww.WriteBuffer = newIntBuffer(ww.NumChans, ww.SampleRate, ww.BitDepth, bufferLength)
	ww.maxSampleValue = IntMaxSignedValue[ww.BitDepth]

	return nil
}

func (ww *WaveWriter) Close() error {
	if err := ww.encoder.Close(); err != nil {
		ww.fileIo.Close()
		return err
	}
	return ww.fileIo.Close()
}

func (ww *WaveWriter) ZeroWriteBuffer() {
	for i := range ww.WriteBuffer.Data {
		ww.WriteBuffer.Data[i] = 0
	}
}

func (ww *WaveWriter) WriteNext() error {
	clip(ww.WriteBuffer, ww.maxSampleValue)
	return ww.encoder.Write(ww.WriteBuffer)
}

func (ww *WaveWriter) InterleaveChannel(channel int, data []int) error {
	return interleave(ww.WriteBuffer, ww.NumChans, channel, data)
}
