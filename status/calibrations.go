package status

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"
	"github.com/calvinmclean/rcdrive/config"

	"github.com/calvinmclean/babyapi"
)

// Calibration is the calibration of one receiver channel, identified by the channel name
type Calibration struct {
	*babyapi.DefaultRenderer

	Channel string             `json:"channel"`
	Min     rcdrive.PulseWidth `json:"min_us"`
	Mid     rcdrive.PulseWidth `json:"mid_us"`
	Max     rcdrive.PulseWidth `json:"max_us"`
}

func newCalibration(ch rcdrive.Channel, cal rcdrive.Calibration) *Calibration {
	return &Calibration{
		Channel: channelName(ch),
		Min:     cal.Min,
		Mid:     cal.Mid,
		Max:     cal.Max,
	}
}

func (c *Calibration) GetID() string {
	return c.Channel
}

func (*Calibration) ParentID() string {
	return ""
}

// Bind rejects unknown channels and invalid calibrations before anything is stored
func (c *Calibration) Bind(r *http.Request) error {
	_, err := parseChannel(c.Channel)
	if err != nil {
		return err
	}
	return c.calibration().Validate()
}

func (c *Calibration) calibration() rcdrive.Calibration {
	return rcdrive.Calibration{Min: c.Min, Mid: c.Mid, Max: c.Max}
}

func parseChannel(name string) (rcdrive.Channel, error) {
	switch name {
	case "steering":
		return rcdrive.ChannelSteering, nil
	case "throttle":
		return rcdrive.ChannelThrottle, nil
	default:
		return rcdrive.ChannelUnknown, fmt.Errorf("unknown channel: %q", name)
	}
}

func channelName(ch rcdrive.Channel) string {
	if ch == rcdrive.ChannelThrottle {
		return "throttle"
	}
	return "steering"
}

// newCalibrationAPI serves GET and PUT on /calibrations/{steering|throttle}. A PUT is handed to the
// controller and only stored once the controller accepts it.
func newCalibrationAPI(c commands.Controller, cals config.Calibrations) (*babyapi.API[*Calibration], error) {
	api := babyapi.NewAPI("Calibrations", "/calibrations", func() *Calibration { return &Calibration{} })
	api.Post = nil
	api.Patch = nil
	api.Delete = nil

	api.SetOnCreateOrUpdate(func(_ http.ResponseWriter, r *http.Request, cal *Calibration) *babyapi.ErrResponse {
		ch, _ := parseChannel(cal.Channel)

		err := c.SetCalibration(ch, cal.calibration())
		if err != nil {
			return &babyapi.ErrResponse{
				Err:            err,
				HTTPStatusCode: http.StatusConflict,
				StatusText:     "Unable to apply calibration.",
				ErrorText:      err.Error(),
			}
		}

		log.Println("calibration", ch, cal.calibration(), "from", r.RemoteAddr)
		return nil
	})

	ctx := context.Background()
	for ch, cal := range map[rcdrive.Channel]rcdrive.Calibration{
		rcdrive.ChannelSteering: cals.Steering,
		rcdrive.ChannelThrottle: cals.Throttle,
	} {
		err := api.Storage.Set(ctx, newCalibration(ch, cal))
		if err != nil {
			return nil, fmt.Errorf("error storing %s calibration: %w", ch, err)
		}
	}

	return api, nil
}
