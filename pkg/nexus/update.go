package nexus

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/nexus/pkg/dsp/bandpower"
	"github.com/norasector/nexus/pkg/dsp/processor"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/norasector/nexus/pkg/util"
	"gonum.org/v1/gonum/mat"
)

func (a *Acquirer) update(ctx context.Context, cancel context.CancelFunc) error {
	tick := time.NewTicker(a.opts.UpdateInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.collected:
			err := a.flush()
			a.completed.Store(true)
			cancel()
			return err
		case <-tick.C:
			if err := a.flush(); err != nil {
				return err
			}
		}
	}
}

func (a *Acquirer) columns(n int) []string {
	if a.info != nil && len(a.info.Channels) == n {
		return a.info.ChannelNames()
	}
	ret := make([]string, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("ch%d", i)
	}
	return ret
}

// ensureChains builds one filter chain per channel, rebuilding if the stream rate changes.
func (a *Acquirer) ensureChains(rate int, columns []string) error {
	if len(a.chains) == len(columns) && a.chainRate == rate {
		return nil
	}
	if a.chains != nil {
		a.logger.Warn().Int("previous", a.chainRate).Int("rate", rate).Msg("rebuilding filters")
	}

	chains := make([]*processor.Processor, len(columns))
	for i, name := range columns {
		chain, err := processor.NewFilterChain("channel_"+name, name, rate, a.opts.Filters, a.vizServer)
		if err != nil {
			return err
		}
		chains[i] = chain
	}
	a.chains = chains
	a.chainRate = rate
	return nil
}

func (a *Acquirer) filter(data *mat.Dense, rate int, columns []string, metrics map[string]interface{}) (*mat.Dense, error) {
	if a.opts.Filters.Empty() {
		return data, nil
	}
	if err := a.ensureChains(rate, columns); err != nil {
		return nil, err
	}

	rows, cols := data.Dims()
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	in := make([]float32, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, data)
		for i, v := range col {
			in[i] = float32(v)
		}
		filtered, err := a.chains[j].Process(in, metrics)
		if err != nil {
			return nil, err
		}
		if len(filtered) != rows {
			a.logger.Warn().
				Str("channel", columns[j]).
				Int("expected", rows).
				Int("got", len(filtered)).
				Msg("filter changed sample count, passing channel through")
			out.SetCol(j, col)
			continue
		}
		for i, v := range filtered {
			col[i] = float64(v)
		}
		out.SetCol(j, col)
	}
	return out, nil
}

// flush drains the buffer and offers the resulting frame to every output.
func (a *Acquirer) flush() error {
	var flushErr error
	dur := util.TimeOperationMicroseconds(func() {
		flushErr = a.flushFrame()
	})
	if flushErr != nil {
		return flushErr
	}
	a.logger.Trace().Int64("duration_us", dur).Msg("update")
	return nil
}

func (a *Acquirer) flushFrame() error {
	raw, index := a.buf.Drain()
	if raw == nil {
		return nil
	}

	meta := a.Meta()
	_, cols := raw.Dims()
	columns := a.columns(cols)

	metrics := make(map[string]interface{})
	data, err := a.filter(raw, meta.Rate, columns, metrics)
	if err != nil {
		return err
	}

	a.frameNum++
	frame := &types.Frame{
		Number:  a.frameNum,
		Index:   index,
		Columns: columns,
		Data:    data,
		Raw:     raw,
		Meta:    meta,
		Device:  a.info,
	}

	skippedOutputs := 0
	for _, output := range a.opts.Outputs {
		select {
		case output.Receive() <- frame:
			// We will not wait on blocked channels.
		default:
			skippedOutputs++
		}
	}
	if skippedOutputs > 0 {
		a.logger.Debug().Int("frame", frame.Number).Int("skipped_outputs", skippedOutputs).Msg("outputs busy")
	}

	now := time.Now()
	metrics["rows"] = frame.Rows()
	metrics["channels"] = cols
	metrics["skipped_outputs"] = skippedOutputs
	go a.writeAPI.WritePoint(influxdb2.NewPoint("nexus.frame",
		map[string]string{
			"serial_number": fmt.Sprint(meta.SerialNumber),
		},
		metrics, now))

	col := make([]float64, frame.Rows())
	for j, name := range columns {
		powers := bandpower.Compute(mat.Col(col, j, data), meta.Rate, bandpower.Bands)
		if len(powers) == 0 {
			continue
		}
		fields := make(map[string]interface{}, len(powers)+1)
		for band, p := range powers {
			fields[band] = p
		}
		fields["dominant"] = bandpower.Dominant(powers)
		go a.writeAPI.WritePoint(influxdb2.NewPoint("nexus.bandpower",
			map[string]string{
				"channel": name,
			},
			fields, now))
	}

	return nil
}
