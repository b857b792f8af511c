package stereo

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/curvedstereo/rimage"
)

// ErrorReport summarizes an estimated depth map against the ground truth.
type ErrorReport struct {
	// Compared counts the cells where both maps have a depth.
	Compared int
	// Inliers counts the compared cells with a confident estimate close to the ground truth.
	Inliers     int
	InlierRatio float64
	// MeanError and RMSError are measured over the inliers, as ground truth minus estimate.
	MeanError    float64
	RMSError     float64
	MedianError  float64
	MeanDistance float64
	// Residuals holds ground truth minus estimate for every compared cell.
	Residuals []float64
}

// String prints the report as a table.
func (report ErrorReport) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Compared", "Inliers", "Ratio", "Mean", "RMS", "Median", "Distance"})
	t.AppendRow(table.Row{
		report.Compared,
		report.Inliers,
		fmt.Sprintf("%.3f", report.InlierRatio),
		fmt.Sprintf("%.4f", report.MeanError),
		fmt.Sprintf("%.4f", report.RMSError),
		fmt.Sprintf("%.4f", report.MedianError),
		fmt.Sprintf("%.3f", report.MeanDistance),
	})
	return t.Render()
}

// AnalyzeError compares hypothesis 0 of est with gt, which must share its grid. A compared cell
// is an inlier when its sigma is at most maxSigma and its error at most k sigmas.
func AnalyzeError(gt, est *rimage.DepthMap, maxSigma, k float64) (ErrorReport, error) {
	if gt.ScaleParameters != est.ScaleParameters {
		return ErrorReport{}, errors.New("depth maps have different grids")
	}
	var report ErrorReport
	var distances, errs, squared, absErrs []float64
	for y := 0; y < est.YMax; y++ {
		for x := 0; x < est.XMax; x++ {
			truth, depth := gt.At(x, y, 0), est.At(x, y, 0)
			if truth < rimage.MinDepth || depth < rimage.MinDepth || math.IsNaN(truth) || math.IsNaN(depth) {
				continue
			}
			report.Compared++
			distances = append(distances, truth)
			sigma := est.Sigma(x, y, 0)
			diff := truth - depth
			report.Residuals = append(report.Residuals, diff)
			if sigma > maxSigma || math.Abs(diff) > k*sigma {
				continue
			}
			errs = append(errs, diff)
			squared = append(squared, diff*diff)
			absErrs = append(absErrs, math.Abs(diff))
		}
	}
	if report.Compared == 0 {
		return report, nil
	}
	report.Inliers = len(errs)
	report.InlierRatio = float64(report.Inliers) / float64(report.Compared)

	var err error
	if report.MeanDistance, err = stats.Mean(distances); err != nil {
		return report, err
	}
	if report.Inliers == 0 {
		return report, nil
	}
	if report.MeanError, err = stats.Mean(errs); err != nil {
		return report, err
	}
	meanSquared, err := stats.Mean(squared)
	if err != nil {
		return report, err
	}
	report.RMSError = math.Sqrt(meanSquared)
	if report.MedianError, err = stats.Median(absErrs); err != nil {
		return report, err
	}
	return report, nil
}
