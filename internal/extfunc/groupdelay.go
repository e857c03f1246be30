package extfunc

import "fmt"

// Group delay of the digital filter in points, indexed by DSP firmware
// version (DSPFVS) and decimation factor (DECIM). The values are fixed by
// the instrument firmware; an unknown pair is a configuration error, never
// silently zero.
var groupDelayTables = map[int]map[int]float64{
	10: {
		2: 44.7500, 3: 33.5000, 4: 66.6250, 6: 59.0833, 8: 68.5625,
		12: 60.3750, 16: 69.5313, 24: 61.0208, 32: 70.0156, 48: 61.3438,
		64: 70.2578, 96: 61.5052, 128: 70.3789, 192: 61.5859, 256: 70.4395,
		384: 61.6263, 512: 70.4697, 1024: 70.4849, 1536: 61.6566, 2048: 70.4924,
	},
	11: {
		2: 46.0000, 3: 36.5000, 4: 48.0000, 6: 50.1667, 8: 53.2500,
		12: 69.5000, 16: 72.2500, 24: 70.1667, 32: 72.7500, 48: 70.5000,
		64: 73.0000, 96: 70.6667, 128: 72.5000, 192: 71.3333, 256: 72.2500,
		384: 71.6667, 512: 72.1250, 1024: 72.0625, 1536: 71.9167, 2048: 72.0313,
	},
	12: {
		2: 46.311, 3: 36.530, 4: 47.870, 6: 50.229, 8: 53.289,
		12: 69.551, 16: 71.600, 24: 70.184, 32: 72.138, 48: 70.528,
		64: 72.348, 96: 70.700, 128: 72.524, 192: 71.3333, 256: 72.2500,
		384: 71.6667, 512: 72.1250, 1024: 72.0625, 1536: 71.9167, 2048: 72.0313,
	},
	13: {
		2: 2.750, 3: 2.833, 4: 2.875, 6: 2.917, 8: 2.938, 12: 2.958,
		16: 2.969, 24: 2.979, 32: 2.984, 48: 2.989, 64: 2.992, 96: 2.995,
	},
}

// GroupDelay returns the digital-filter group delay in points for the given
// decimation factor and DSP firmware version. A decimation factor of 1
// means the filter is bypassed and the delay is zero.
func GroupDelay(decim, dspfvs int) (float64, error) {
	if decim == 1 {
		return 0, nil
	}
	table, ok := groupDelayTables[dspfvs]
	if !ok {
		return 0, fmt.Errorf("grpdly: unknown DSP firmware version %d", dspfvs)
	}
	gd, ok := table[decim]
	if !ok {
		return 0, fmt.Errorf("grpdly: no entry for decimation factor %d under firmware version %d", decim, dspfvs)
	}
	return gd, nil
}
