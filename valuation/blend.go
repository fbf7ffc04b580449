package valuation

import "stock-insight/models"

// Blend averages the applicable estimates into a single fair value.
// Excluded estimates never enter the mean: the invariant is that
// ModelCount reflects exactly the estimates the average was built from.
func Blend(estimates []models.ValuationEstimate) models.BlendedValuation {
	var blended models.BlendedValuation
	var sum, min, max float64

	for _, est := range estimates {
		if !est.Applicable {
			continue
		}
		if blended.ModelCount == 0 {
			min, max = est.FairValue, est.FairValue
		} else {
			if est.FairValue < min {
				min = est.FairValue
			}
			if est.FairValue > max {
				max = est.FairValue
			}
		}
		sum += est.FairValue
		blended.ModelCount++
	}

	if blended.ModelCount == 0 {
		return blended
	}

	blended.FairValue = sum / float64(blended.ModelCount)
	blended.Spread = max - min
	if blended.FairValue != 0 {
		blended.SpreadPct = blended.Spread / blended.FairValue
	}
	return blended
}
