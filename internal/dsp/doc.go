// Package dsp implements the audio feature pipeline: centred Hann-windowed
// STFT, slaney mel filterbank, power-to-dB conversion, MFCCs, and summary
// statistics. FFTs and statistics come from gonum.
package dsp
