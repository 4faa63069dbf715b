package workflow

import "github.com/aretw0/remodel/pkg/domain"

// Lidar builds the table of the mesh painting workflow, which can pause painting to
// extend the scanned mesh: Painting ⇄ LidarScanning.
func Lidar() *Table {
	return &Table{
		Family:  domain.FamilyLidar,
		Initial: domain.PhasePainting,
		Phases:  []domain.Phase{domain.PhasePainting, domain.PhaseLidarScanning},
		Actions: map[domain.Phase]map[domain.ActionKind]ActionRule{
			domain.PhasePainting: merge(paintingActions(), map[domain.ActionKind]ActionRule{
				domain.ActionStartLidarScan: {
					Target:   domain.PhaseLidarScanning,
					Commands: issue(domain.Cmd(domain.CommandStartLidarScan)),
				},
			}),
			domain.PhaseLidarScanning: {
				domain.ActionStopLidarScan: {
					Target:   domain.PhasePainting,
					Commands: issue(domain.Cmd(domain.CommandStopLidarScan)),
				},
			},
		},
		Global: globalActions(),
		Events: commonEvents(),
		Boot:   bootCommands(),
	}
}

// PaintOnly builds the single-phase table shared by the legacy and shader families.
func PaintOnly(family domain.Family) *Table {
	return &Table{
		Family:  family,
		Initial: domain.PhasePainting,
		Phases:  []domain.Phase{domain.PhasePainting},
		Actions: map[domain.Phase]map[domain.ActionKind]ActionRule{
			domain.PhasePainting: paintingActions(),
		},
		Global: globalActions(),
		Events: commonEvents(),
		Boot:   bootCommands(),
	}
}
