package decomp

// Component is the kinematic component a star particle is assigned to.
type Component int

const (
	Unassigned Component = iota
	ThinDisk
	Halo
	Bulge
	ThickDisk
	PseudoBulge
)

func (c Component) String() string {
	switch c {
	case Unassigned:
		return "unassigned"
	case ThinDisk:
		return "thin disk"
	case Halo:
		return "halo"
	case Bulge:
		return "bulge"
	case ThickDisk:
		return "thick disk"
	case PseudoBulge:
		return "pseudo bulge"
	}
	panic(":3")
}

// Components lists the assignable components in label order.
var Components = []Component{ThinDisk, Halo, Bulge, ThickDisk, PseudoBulge}
