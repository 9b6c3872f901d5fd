package graph

// resolveInputs computes the effective inputs for a node per the precedence
// order: connection > constant input value > default > absent > required
// failure. It consults rc's result store for upstream outputs and vg's
// precomputed reverse index for which connection, if any, targets each port.
func resolveInputs(nodeID string, node Node, inputValues map[string]any, vg *validatedGraph, rc *RunContext) (map[string]any, error) {
	inPorts, _ := node.Ports()
	effective := make(map[string]any, len(inPorts))

	for portName, desc := range inPorts {
		value, present, err := resolvePort(nodeID, portName, desc, inputValues, vg, rc)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}

		coerced, err := coerce(value, desc.Type)
		if err != nil {
			return nil, err
		}
		if !desc.CheckOptions(coerced) {
			return nil, &TypeMismatch{NodeID: nodeID, Port: portName, Expected: desc.Type, Got: coerced}
		}
		effective[portName] = coerced
	}
	return effective, nil
}

// resolvePort applies the single-port precedence rule and reports whether a
// value is present at all (a non-required, default-less, unsupplied port
// yields present=false).
func resolvePort(nodeID, portName string, desc PortDescriptor, inputValues map[string]any, vg *validatedGraph, rc *RunContext) (value any, present bool, err error) {
	if conn, ok := vg.reverse[nodeID][portName]; ok {
		out, ok := rc.Result(conn.FromNode)
		if ok {
			if v, ok := out[conn.FromPort]; ok {
				return v, true, nil
			}
		}
		// Upstream produced no value for that port (e.g. absent optional
		// output): fall through to inputValues/default, same as if there
		// were no connection at all.
	}

	if v, ok := inputValues[portName]; ok {
		return v, true, nil
	}

	if !desc.Required {
		if desc.Default != nil {
			return desc.Default, true, nil
		}
		return nil, false, nil
	}

	return nil, false, &MissingRequiredInput{NodeID: nodeID, Port: portName}
}
