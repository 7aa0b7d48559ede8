package playerjs

// Decipherer replays the programs recovered from one player asset.
type Decipherer struct {
	programs *Programs
}

// NewDecipherer discovers both programs in jsBody.
func NewDecipherer(jsBody string) (*Decipherer, error) {
	p, err := Discover(jsBody)
	if err != nil {
		return nil, err
	}
	return &Decipherer{programs: p}, nil
}

func NewDeciphererFromPrograms(p *Programs) *Decipherer {
	return &Decipherer{programs: p}
}

func (d *Decipherer) Programs() *Programs {
	return d.programs
}

// DecipherSignature deciphers the 's' parameter.
func (d *Decipherer) DecipherSignature(s string) (string, error) {
	if d.programs == nil || d.programs.Signature == nil {
		return "", &ProgramNotFoundError{Program: ProgramSignature, Anchor: "signature program"}
	}
	return d.programs.Signature.Apply(s)
}

// DecipherN deciphers the 'n' parameter.
func (d *Decipherer) DecipherN(n string) (string, error) {
	if d.programs == nil || d.programs.Throttle == nil {
		return "", &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "throttle program"}
	}
	return d.programs.Throttle.Apply(n)
}
