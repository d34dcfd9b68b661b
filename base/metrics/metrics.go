package metrics

const (
	MedianH = "The current median of all values accepted since the last reset"
	MedianN = "rollingmedian_median"

	ResetsH = "The total number of resets of the rolling median"
	ResetsN = "rollingmedian_resets"

	ValuesAcceptedH = "The total number of values accepted by the rolling median"
	ValuesAcceptedN = "rollingmedian_values_accepted"
	ValuesRejectedH = "The total number of values rejected because they are NaN or malformed"
	ValuesRejectedN = "rollingmedian_values_rejected"
	ValuesStoredH   = "The number of values currently stored by the rolling median"
	ValuesStoredN   = "rollingmedian_values_stored"
)
