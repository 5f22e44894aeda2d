package provisioning

// ConfigBlob is an opaque configuration mapping attached to a Host, a
// ClusterHost, or a Cluster. The core never interprets its keys; it only
// governs how writes merge and when they invalidate prior validation.
type ConfigBlob map[string]any

// Clone returns a deep copy of the blob. Nested maps are copied recursively so
// mutations of the clone never leak into the original.
func (c ConfigBlob) Clone() ConfigBlob {
	if c == nil {
		return ConfigBlob{}
	}
	out := make(ConfigBlob, len(c))
	for k, v := range c {
		if m, ok := v.(map[string]any); ok {
			out[k] = map[string]any(ConfigBlob(m).Clone())
			continue
		}
		out[k] = v
	}
	return out
}

// Patch deep-merges partial into the blob and returns the result. For each
// key, if both the existing and the new value are mappings they merge
// recursively; otherwise the new value overwrites. Neither input is mutated.
func (c ConfigBlob) Patch(partial ConfigBlob) ConfigBlob {
	out := c.Clone()
	for k, v := range partial {
		existing, ok := out[k]
		if ok {
			em, eIsMap := existing.(map[string]any)
			nm, nIsMap := v.(map[string]any)
			if eIsMap && nIsMap {
				out[k] = map[string]any(ConfigBlob(em).Patch(ConfigBlob(nm)))
				continue
			}
		}
		if m, isMap := v.(map[string]any); isMap {
			out[k] = map[string]any(ConfigBlob(m).Clone())
			continue
		}
		out[k] = v
	}
	return out
}

// Put shallow-overwrites the blob with update and returns the result: only
// top-level keys present in update replace the corresponding entries, all
// other keys are preserved. Neither input is mutated.
func (c ConfigBlob) Put(update ConfigBlob) ConfigBlob {
	out := c.Clone()
	for k, v := range update {
		if m, isMap := v.(map[string]any); isMap {
			out[k] = map[string]any(ConfigBlob(m).Clone())
			continue
		}
		out[k] = v
	}
	return out
}
