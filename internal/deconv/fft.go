package deconv

import "gonum.org/v1/gonum/dsp/fourier"

// fft2 computes an in-place 2D DFT of a row-major complex array by
// transforming rows, then columns. The inverse transform is unnormalized;
// callers divide by rows*cols.
func fft2(data []complex128, rows, cols int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(cols)
	scratch := make([]complex128, cols)
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		if inverse {
			rowFFT.Sequence(scratch, row)
		} else {
			rowFFT.Coefficients(scratch, row)
		}
		copy(row, scratch)
	}

	colFFT := fourier.NewCmplxFFT(rows)
	colIn := make([]complex128, rows)
	colOut := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			colIn[r] = data[r*cols+c]
		}
		if inverse {
			colFFT.Sequence(colOut, colIn)
		} else {
			colFFT.Coefficients(colOut, colIn)
		}
		for r := 0; r < rows; r++ {
			data[r*cols+c] = colOut[r]
		}
	}
}

// shift2 rotates a row-major array left by rows/2 and cols/2, moving the
// center sample to index (0, 0). With odd axis lengths this is the
// standard zero-frequency shift and aligns a centered spatial kernel with
// the DFT origin.
func shift2(src []float64, rows, cols int) []float64 {
	out := make([]float64, rows*cols)
	hr, hc := rows/2, cols/2
	for r := 0; r < rows; r++ {
		sr := (r + hr) % rows
		for c := 0; c < cols; c++ {
			out[r*cols+c] = src[sr*cols+(c+hc)%cols]
		}
	}
	return out
}
