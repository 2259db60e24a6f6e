package robot

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// floatingBaseDoF is the number of unactuated base coordinates a floating-base
// model reports in its DoF count.
const floatingBaseDoF = 6

// Description is the robot model as seen by the controller: its name and the
// actuated joints it exposes.
type Description struct {
	Name         string   `yaml:"name"`
	FloatingBase bool     `yaml:"floating_base"`
	Joints       []string `yaml:"joints"`
}

//go:embed rok3.yaml
var rok3YAML []byte

// DefaultDescription returns the embedded RoK-3 description.
func DefaultDescription() *Description {
	d, err := ParseDescription(rok3YAML)
	if err != nil {
		panic(err)
	}
	return d
}

// LoadDescription reads a YAML model description and validates it.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model description")
	}
	d, err := ParseDescription(data)
	return d, errors.Wrap(err, path)
}

// ParseDescription decodes and validates a YAML model description.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "parse model description")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DoFCount is the model's total degree-of-freedom count, including the
// floating base when present.
func (d *Description) DoFCount() int {
	if d.FloatingBase {
		return len(d.Joints) + floatingBaseDoF
	}
	return len(d.Joints)
}

// ActuatedDoF excludes the floating base.
func (d *Description) ActuatedDoF() int {
	return len(d.Joints)
}

// Validate confirms the fixed topology the controller and the leg chains
// assume: every biped joint present exactly once.
func (d *Description) Validate() error {
	var err error
	if d.ActuatedDoF() != NumJoints {
		err = multierr.Append(err, errors.Wrapf(ErrDescription, "expected %d actuated joints, got %d", NumJoints, d.ActuatedDoF()))
	}
	seen := make(map[JointID]bool, len(d.Joints))
	for _, name := range d.Joints {
		id, perr := ParseJointID(name)
		if perr != nil {
			err = multierr.Append(err, errors.Wrap(ErrDescription, perr.Error()))
			continue
		}
		if seen[id] {
			err = multierr.Append(err, errors.Wrapf(ErrDescription, "joint %s listed twice", id))
		}
		seen[id] = true
	}
	for _, leg := range []Leg{Left, Right} {
		for _, id := range leg.Joints() {
			if !seen[id] {
				err = multierr.Append(err, errors.Wrapf(ErrDescription, "%s leg is missing %s", leg, id))
			}
		}
	}
	return err
}
